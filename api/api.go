package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tsapi "github.com/typesense/typesense-go/typesense/api"

	"github.com/perchstay/perch"
	"github.com/perchstay/perch/api/middleware"
	"github.com/perchstay/perch/config"
)

type Api struct {
	perch  *perch.Perch
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/hosts", a.CreateHost)
	router.GET("/hosts/:id", a.GetHost)
	router.GET("/hosts/:id/listings", a.GetListingsByHost)

	router.POST("/guests", a.CreateGuest)
	router.GET("/guests/:id", a.GetGuest)
	router.GET("/guests/:id/reservations", a.GetReservationsByGuest)

	router.POST("/listings", a.CreateListing)
	router.GET("/listings/:id", a.GetListing)
	router.GET("/listings", a.GetAllListings)

	router.POST("/reservations", a.CreateReservation)
	router.GET("/reservations/:id", a.GetReservation)
	router.GET("/reservations/:id/escrows", a.GetEscrowsByReservation)
	router.POST("/reservations/:id/mark-paid", a.MarkReservationPaid)

	router.POST("/escrows", a.FundEscrow)
	router.POST("/escrows/:id/release", a.ReleaseEscrow)
	router.GET("/escrows/:id", a.GetEscrow)
	router.GET("/escrows", a.GetAllEscrows)
	router.GET("/escrows/:id/transfers", a.GetTransfersByEscrow)

	router.POST("/balances", a.CreateBalance)
	router.GET("/balances/:indicator/:currency", a.GetBalanceByIndicator)

	router.GET("/search-listings", a.SearchListings)
	router.POST("/search/:collection", a.Search)

	router.GET("/backup", a.BackupDB)
	router.GET("/backup-s3", a.BackupDBS3)

	return a.router
}

func NewAPI(p *perch.Perch) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{perch: p, router: r}
}

func (a Api) Search(c *gin.Context) {
	collection, passed := c.Params.Get("collection")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "collection is required. pass collection in the route /:collection"})
		return
	}

	var query tsapi.SearchCollectionParams
	err := c.BindJSON(&query)
	if err != nil {
		return
	}

	resp, err := a.perch.Search(collection, &query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
