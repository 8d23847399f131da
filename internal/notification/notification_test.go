package notification

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/perchstay/perch/config"
)

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	cnf := &config.Configuration{
		Notification: config.Notification{},
	}
	cnf.Notification.Slack.WebhookUrl = "https://hooks.slack.com/services/perch/test"
	config.MockConfig(cnf)

	var gotBody string
	httpmock.RegisterResponder("POST", "https://hooks.slack.com/services/perch/test",
		func(req *http.Request) (*http.Response, error) {
			buf, _ := io.ReadAll(req.Body)
			gotBody = string(buf)
			return httpmock.NewJsonResponse(200, map[string]interface{}{"ok": true})
		})

	SlackNotification(errors.New("escrow release failed"))

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Contains(t, gotBody, "escrow release failed")
}

func TestSlackNotificationSkippedWithoutWebhook(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockConfig(&config.Configuration{})

	NotifyError(errors.New("nothing to deliver"))

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}
