package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/history"
	"github.com/nixlim/keyprint/internal/submit"
)

type submitOutput struct {
	UserID    string        `json:"user_id" yaml:"user_id"`
	Events    int           `json:"events" yaml:"events"`
	Status    submit.Status `json:"status" yaml:"status"`
	Message   string        `json:"message" yaml:"message"`
	Predicted string        `json:"predicted_user,omitempty" yaml:"predicted_user,omitempty"`
}

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		userID     string
		sentence   string
		eventsPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a saved capture to the logging and prediction endpoints",
		Long: `Sends a capture file to both service endpoints, exactly as the capture
screen does, and prints the result. The sentence must be non-blank; the
user id defaults to "unknown".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}

			cfg, err := loadConfig(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			closeLog, err := setupCLILogging(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			events, err := capture.LoadFile(eventsPath)
			if err != nil {
				return err
			}

			store, _, err := history.NewStore(cfg.History)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer store.Close()

			debugLog, closeDebug, err := openDebugLog(opts.debugPath)
			if err != nil {
				return err
			}
			defer closeDebug()

			s := submit.New(submit.NewClient(cfg.Server),
				submit.WithHistory(store),
				submit.WithLogger(debugLog),
			)

			form := submit.Form{UserID: userID, Sentence: sentence}
			p, err := s.Prepare(form, events)
			if errors.Is(err, submit.ErrEmptySentence) {
				return errors.New(submit.EmptySentencePrompt)
			}
			if err != nil {
				return err
			}

			outcome, deliverErr := s.Deliver(cmd.Context(), p)

			result := submitOutput{
				UserID:    p.UserID,
				Events:    len(p.Events),
				Status:    outcome.Status,
				Message:   outcome.Message,
				Predicted: outcome.Predicted,
			}
			if format == formatText {
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			} else if err := writeStructured(cmd.OutOrStdout(), format, result); err != nil {
				return err
			}

			if deliverErr != nil {
				return fmt.Errorf("submitting capture: %w", deliverErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id sent with the capture")
	cmd.Flags().StringVar(&sentence, "sentence", "", "the sentence that was typed")
	cmd.Flags().StringVar(&eventsPath, "events", "", "capture file (JSON)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|json|yaml")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}
