package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/perchstay/perch"
	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/model"
)

// seedCommands populates a fresh deployment with fake hosts, guests, listings
// and reservations for local development.
func seedCommands(p *perchInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "seed fake marketplace data",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if err := seedData(ctx, p); err != nil {
				log.Fatal(err)
			}
		},
	}

	cmd.Flags().Int("hosts", 5, "number of hosts to create")
	cmd.Flags().Int("guests", 10, "number of guests to create")

	return cmd
}

func seedData(ctx context.Context, p *perchInstance) error {
	cnf, err := config.Fetch()
	if err != nil {
		return err
	}

	// Treasury has to exist before any escrow can be funded against it.
	_, err = p.perch.CreateBalance(ctx, model.Balance{
		Indicator: cnf.Platform.TreasuryIndicator,
		Currency:  cnf.Platform.Currency,
	})
	if err != nil {
		log.Printf("treasury balance: %v", err)
	}

	for i := 0; i < 5; i++ {
		host, err := p.perch.CreateHost(ctx, model.Host{
			Author: gofakeit.Username(),
			Name:   gofakeit.Name(),
			Email:  gofakeit.Email(),
		}, gofakeit.Password(true, true, true, false, false, 12))
		if err != nil {
			return fmt.Errorf("seeding host: %w", err)
		}

		listing, err := p.perch.CreateListing(ctx, model.Listing{
			HostID:        host.Address,
			Title:         fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), gofakeit.NounConcrete()),
			Description:   gofakeit.Sentence(12),
			Category:      gofakeit.RandomString([]string{"cabin", "apartment", "house", "villa"}),
			RoomCount:     gofakeit.Number(1, 6),
			BathroomCount: gofakeit.Number(1, 3),
			GuestCapacity: gofakeit.Number(2, 10),
			CountryCode:   gofakeit.CountryAbr(),
			PricePerNight: int64(gofakeit.Number(5000, 100000)),
		})
		if err != nil {
			return fmt.Errorf("seeding listing: %w", err)
		}

		guest, err := p.perch.CreateGuest(ctx, model.Guest{
			Author:      gofakeit.Username(),
			Name:        gofakeit.Name(),
			Email:       gofakeit.Email(),
			PhoneNumber: gofakeit.Phone(),
		}, gofakeit.Password(true, true, true, false, false, 12))
		if err != nil {
			return fmt.Errorf("seeding guest: %w", err)
		}

		start := time.Now().Add(time.Duration(gofakeit.Number(1, 60)) * 24 * time.Hour)
		_, err = p.perch.CreateReservation(ctx, perch.ReservationRequest{
			ReservationID: int64(i + 1),
			GuestID:       guest.Address,
			ListingID:     listing.Address,
			StartDate:     start.Unix(),
			EndDate:       start.Add(time.Duration(gofakeit.Number(1, 14)) * 24 * time.Hour).Unix(),
			GuestCount:    gofakeit.Number(1, 2),
		})
		if err != nil {
			return fmt.Errorf("seeding reservation: %w", err)
		}
	}

	log.Println("seed complete")
	return nil
}
