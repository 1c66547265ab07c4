package http

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

const seattleIP = "203.0.113.7"

func newEmailOpened(root, message uuid.UUID, at time.Time) domain.EmailOpened {
	return domain.EmailOpened{
		MessageItem: &domain.MessageItem{ID: message},
		Interaction: &domain.Interaction{
			ID:         uuid.New(),
			CampaignID: uuid.New(),
		},
		ChannelID: uuid.New(),
		Events: []domain.Event{
			{
				Kind:          domain.KindEmailOpened,
				ID:            uuid.New(),
				Timestamp:     at,
				MessageID:     message,
				InstanceID:    uuid.New(),
				ManagerRootID: root,
			},
			{
				Kind:      domain.KindPageView,
				ID:        uuid.New(),
				Timestamp: at.Add(time.Minute),
			},
		},
		IPAddress: seattleIP,
	}
}

func (i *IntegrationTestSuite) TestInteractions_Save() {
	ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
	defer cancel()

	const amount = 100
	root, message := uuid.New(), uuid.New()

	wg := &sync.WaitGroup{}
	errs := make(chan error, amount)
	for k := 0; k < amount; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- i.client.SendInteraction(ctx, newEmailOpened(root, message, time.Now()))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		i.Require().NoError(err)
	}

	expected := fmt.Sprintf(`exm_interactions_saved_total{status="saved"} %d`, amount)
	i.Eventually(func() bool {
		body, err := i.client.Metrics(ctx)
		return err == nil && strings.Contains(body, expected)
	}, 30*time.Second, 500*time.Millisecond)
}

func (i *IntegrationTestSuite) TestInteractions_Dimensions() {
	ctx, cancel := context.WithTimeout(i.ctx, 10*time.Second)
	defer cancel()

	root, message := uuid.New(), uuid.New()
	at := time.Now().UTC()
	args := newEmailOpened(root, message, at)
	interaction := *args.Interaction
	interaction.Events = args.Events

	results, err := i.client.Dimensions(ctx, interaction)
	i.Require().NoError(err)
	i.Require().Empty(results, "interaction without ip info has no location")

	interaction.IPInfo = &domain.IPInfo{IPAddress: seattleIP}
	results, err = i.client.Dimensions(ctx, interaction)
	i.Require().NoError(err)
	i.Require().Len(results, 1)
	i.Equal(fmt.Sprintf("%s_%s_%d_US_WA_Seattle", root, message, domain.EmailEventOpen), results[0].Key)
	i.Equal(domain.MetricsBundle{Visits: 1, PageViews: 2}, results[0].Metrics)
}
