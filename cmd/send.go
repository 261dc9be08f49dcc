package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/herald-sh/herald/internal/config"
	"github.com/herald-sh/herald/internal/delivery"
	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/logger"
	"github.com/herald-sh/herald/internal/storage"
)

var sendCmd = &cobra.Command{
	Use:   "send [flags] <title> <content>",
	Short: "Deliver a one-off notification",
	Long: `Deliver a single notification directly, bypassing the broker. Useful
for smoke-testing provider credentials and recipient setup.

Examples:
  herald send --user user-1 "Welcome" "Hello from herald"
  herald send --contact crm-42 --urgency urgent --sensitive "Alert" "New login detected"`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().String("user", "", "Recipient user id")
	sendCmd.Flags().String("contact", "", "Recipient contact id")
	sendCmd.Flags().StringSlice("channel", nil, "Explicit channels (email, sms); empty means preference defaults")
	sendCmd.Flags().String("urgency", "normal", "Message urgency (normal, important, urgent)")
	sendCmd.Flags().Bool("sensitive", false, "Mark the message sensitive (email only, bypasses quiet hours)")
	sendCmd.Flags().String("template", "", "Template name to render with")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")
	contactID, _ := cmd.Flags().GetString("contact")
	channelNames, _ := cmd.Flags().GetStringSlice("channel")
	urgency, _ := cmd.Flags().GetString("urgency")
	sensitive, _ := cmd.Flags().GetBool("sensitive")
	templateName, _ := cmd.Flags().GetString("template")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), false)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	db, _, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	messages := storage.NewSQLiteMessageStore(db)
	requests := storage.NewSQLiteRequestStore(db)

	dispatchers, err := buildDispatchers(cfg)
	if err != nil {
		return err
	}

	deliverer := delivery.New(delivery.Config{
		Dispatchers: dispatchers,
		Addresses:   storage.NewSQLiteRecipientStore(db),
		Preferences: storage.NewSQLitePreferenceStore(db),
		Templates:   storage.NewSQLiteTemplateStore(db),
		Requests:    requests,
		Attempts:    storage.NewSQLiteAttemptStore(db),
		Logger:      sysLogger,
	})

	var channels []domain.Channel
	for _, name := range channelNames {
		channels = append(channels, domain.Channel(name))
	}

	now := time.Now().UTC()
	msg := &domain.Message{
		ID:            uuid.NewString(),
		SenderService: "herald-cli",
		Title:         args[0],
		Content:       args[1],
		Format:        domain.ContentFormatMarkdown,
		Sensitive:     sensitive,
		Urgency:       domain.Urgency(urgency),
		CreatedAt:     now,
	}
	if err := messages.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("persisting message: %w", err)
	}

	req := &domain.DeliveryRequest{
		ID:            uuid.NewString(),
		MessageID:     msg.ID,
		CorrelationID: uuid.NewString(),
		UserID:        userID,
		ContactID:     contactID,
		Channels:      channels,
		TemplateName:  templateName,
		CreatedAt:     now,
	}
	if err := requests.CreateRequest(ctx, req); err != nil {
		return fmt.Errorf("persisting delivery request: %w", err)
	}

	res, err := deliverer.Deliver(ctx, msg, req)
	if err != nil {
		return fmt.Errorf("delivering: %w", err)
	}

	fmt.Printf("request %s\n", res.RequestID)
	for _, a := range res.Attempts {
		line := fmt.Sprintf("  %-5s %-6s %s", a.Channel, a.Status, a.RecipientAddress)
		if a.Error != "" {
			line += "  (" + a.Error + ")"
		}
		fmt.Println(line)
	}
	for _, c := range res.Skipped {
		fmt.Printf("  %-5s skipped\n", c)
	}
	if res.InQuietHours && res.QuietHoursEndAt != nil {
		fmt.Printf("  recipient in quiet hours until %s\n", res.QuietHoursEndAt.Format(time.RFC3339))
	}
	if !res.Delivered {
		return fmt.Errorf("no channel delivered successfully")
	}
	return nil
}
