package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/asset-inventory/internal/activity"
	activityPostgres "github.com/frahmantamala/asset-inventory/internal/activity/postgres"
	"github.com/frahmantamala/asset-inventory/internal/core/database"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
	"github.com/frahmantamala/asset-inventory/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events through the bus into the activity log`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [action]",
	Short: "Publish a test activity event",
	Long:  `Publish an activity event on the event bus and write it to the activity log, for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to publish event: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	eventData   string
	eventModule string
	eventEntity string
)

func publishTestEvent(action string) error {
	cfg := mustLoadConfig()
	lg := logger.LoggerWrapper()

	sqlxDB, _, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlxDB.Close()

	repo := activityPostgres.NewActivityRepository(sqlxDB)
	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(events.EventTypeActivity, func(ctx context.Context, event events.Event) error {
		ev, ok := event.(*events.ActivityEvent)
		if !ok {
			return fmt.Errorf("expected ActivityEvent, got %T", event)
		}
		row, err := activity.FromEvent(ev)
		if err != nil {
			return err
		}
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return repo.Save(ctx, row)
	})

	ev := events.NewActivityEvent(0, action, eventModule, eventEntity, 0, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	lg.Info("publishing test event", "action", action, "event_id", ev.EventID())

	if err := eventBus.PublishSync(context.Background(), ev); err != nil {
		return err
	}

	lg.Info("test event written to activity log", "event_id", ev.EventID())
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().StringVar(&eventModule, "module", "admin", "Module recorded on the event")
	publishEventCmd.Flags().StringVar(&eventEntity, "entity", "system", "Entity type recorded on the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
