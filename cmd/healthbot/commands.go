package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rookguy/healthbot/internal/config"
	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/research"
	"github.com/rookguy/healthbot/internal/storage"
)

func bulletList(tasks []string) string {
	return "- " + strings.Join(tasks, "\n- ")
}

// --- intake ---

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Create your profile and first plan",
	Long: `Create your profile and first plan.

Examples:
  healthbot intake --name Sam --mood tired --stress high --sleep 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var answers plan.IntakeAnswers
		answers.Name, _ = cmd.Flags().GetString("name")
		answers.Mood, _ = cmd.Flags().GetString("mood")
		answers.Stress, _ = cmd.Flags().GetString("stress")
		answers.Sleep, _ = cmd.Flags().GetString("sleep")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.engine.Intake(answers)
		if errors.Is(err, plan.ErrProfileExists) {
			printWarning("a profile already exists at %s", a.profile.Path())
			return err
		}
		if err != nil {
			return err
		}

		printSuccess("Profile created for %s", p.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "Your plan for today:\n%s\n", bulletList(p.Plan))
		return nil
	},
}

func init() {
	intakeCmd.Flags().String("name", "", "what should I call you")
	intakeCmd.Flags().String("mood", "", "how you are feeling today")
	intakeCmd.Flags().String("stress", "", "stress level (low/medium/high)")
	intakeCmd.Flags().String("sleep", "", "hours of sleep on average")
}

// --- plan ---

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Draw a new plan for today",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tasks, err := a.engine.RegeneratePlan()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Here’s your new plan for today:\n%s\n", bulletList(tasks))
		return nil
	},
}

// --- checkin ---

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record today's check-in and adapt tomorrow's plan",
	Long: `Record today's check-in and adapt tomorrow's plan.

Examples:
  healthbot checkin --mood calm --completed yes
  healthbot checkin --mood tired --completed partly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, _ := cmd.Flags().GetString("mood")
		completed, _ := cmd.Flags().GetString("completed")
		if completed == "" {
			return fmt.Errorf("--completed is required (yes, partly or no)")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.engine.DailyCheckIn(mood, completed)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Reply)
		fmt.Fprintf(out, "Tomorrow's plan:\n%s\n", bulletList(res.Plan))
		return nil
	},
}

func init() {
	checkinCmd.Flags().String("mood", "", "how you feel today")
	checkinCmd.Flags().String("completed", "", "did you complete your plan? (yes/partly/no)")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a chat message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		remote, _ := cmd.Flags().GetBool("remote")
		out := cmd.OutOrStdout()

		if remote {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			resp, err := newAPIClient(cfg).post(cmd.Context(), "/chat", map[string]string{"message": message})
			if err != nil {
				return err
			}
			var result struct {
				Reply string `json:"reply"`
			}
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}
			fmt.Fprintln(out, result.Reply)
			return nil
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		reply, err := a.responder.Respond(message)
		if err != nil {
			return err
		}
		ix := storage.Interaction{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC(),
			Message:   message,
			Reply:     reply.Text,
			Rule:      reply.Rule,
		}
		if err := a.journal.SaveInteraction(ix); err != nil {
			printWarning("could not journal interaction: %v", err)
		}
		fmt.Fprintln(out, reply.Text)
		return nil
	},
}

func init() {
	chatCmd.Flags().Bool("remote", false, "send the message to the running server instead of answering locally")
}

// --- research ---

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run a research refresh now and integrate new strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := research.Enqueue(a.journal, time.Now(), "cli")
		if err != nil {
			return err
		}
		printStep("Queued research refresh %s", id)

		worker := research.NewWorker(a.journal, 0)
		for {
			done, err := worker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if !done {
				break
			}
		}

		status, err := a.journal.JobStatus(id)
		if err != nil {
			return err
		}
		if status != storage.JobCompleted {
			return fmt.Errorf("research refresh %s ended as %s", id, status)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Integrated new strategies: %s\n", strings.Join(research.Strategies(), ", "))
		return nil
	},
}

var researchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List integrated strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.journal.ListStrategies(limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No strategies integrated yet.")
			return nil
		}
		for _, st := range list {
			fmt.Fprintf(out, "%s  %s\n", st.IntegratedAt.Format(time.DateOnly), st.Name)
		}
		return nil
	},
}

func init() {
	researchListCmd.Flags().Int("limit", 20, "maximum number of strategies to list")
	researchCmd.AddCommand(researchListCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Browse the chat journal",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		interactions, err := a.journal.GetRecentInteractions(limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(interactions) == 0 {
			fmt.Fprintln(out, "No interactions found.")
			return nil
		}
		for _, ix := range interactions {
			msg := ix.Message
			if r := []rune(msg); len(r) > 60 {
				msg = string(r[:60]) + "..."
			}
			fmt.Fprintf(out, "%s  %s  %-8s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.CreatedAt.Format(time.RFC3339),
				ix.Rule,
				msg,
			)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ix, err := a.journal.GetInteraction(args[0])
		if err != nil {
			return fmt.Errorf("interaction %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ix)
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
