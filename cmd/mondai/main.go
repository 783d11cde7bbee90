package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mondaiapp/mondai/internal/billing"
	"github.com/mondaiapp/mondai/internal/generator"
	"github.com/mondaiapp/mondai/internal/grading"
	"github.com/mondaiapp/mondai/internal/handler"
	appI18n "github.com/mondaiapp/mondai/internal/i18n"
	"github.com/mondaiapp/mondai/internal/llm"
	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/quota"
	"github.com/mondaiapp/mondai/internal/session"
	"github.com/mondaiapp/mondai/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mondai",
		Short: "LLM-powered quiz web service",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `mondai --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mondai.db", "SQLite database path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = default)")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", llm.DefaultModel, "LLM model name")
	f.StringP("lang", "l", "ja", "UI language (ja, en)")
	f.String("session-secret", "", "Secret key for browsing-session cookies")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("base-url", "http://localhost:8080", "Public base URL for checkout redirects")
	f.String("stripe-key", "", "Stripe secret key")
	f.String("stripe-webhook-secret", "", "Stripe webhook signing secret")
	f.String("price-basic", "", "Stripe price ID for the basic plan")
	f.String("price-premium", "", "Stripe price ID for the premium plan")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's questions and statistics as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mondai.db", "SQLite database path")
	f.String("email", "", "Email of the user to export (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MONDAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mondai")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mondai")
	v.AddConfigPath("/etc/mondai")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)

	sessionSecret := v.GetString("session-secret")
	if sessionSecret == "" {
		return fmt.Errorf("session secret is required: set --session-secret flag or MONDAI_SESSION_SECRET env var")
	}
	sessions := session.NewStore([]byte(sessionSecret), v.GetBool("secure-cookies"))

	limiter := quota.NewLimiter(db)
	gen := generator.New(llmClient, db, limiter)
	grader := grading.New(llmClient, db)

	baseURL := strings.TrimRight(v.GetString("base-url"), "/")
	cfg := model.Config{
		Addr:          v.GetString("addr"),
		SuccessURL:    baseURL + "/success",
		CancelURL:     baseURL + "/cancel",
		SecureCookies: v.GetBool("secure-cookies"),
	}

	stripeAPI := billing.NewStripeAPI(
		v.GetString("stripe-key"),
		v.GetString("stripe-webhook-secret"),
	)
	billingSvc := billing.New(stripeAPI, db, map[model.Plan]string{
		model.PlanBasic:   v.GetString("price-basic"),
		model.PlanPremium: v.GetString("price-premium"),
	})

	h := handler.New(db, gen, grader, billingSvc, sessions, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	slog.Info("starting server",
		"addr", cfg.Addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

// userExport is the JSON document produced by the export command.
type userExport struct {
	Email      string             `json:"email"`
	Statistics model.Statistics   `json:"statistics"`
	Topics     []model.TopicCount `json:"topics"`
	Questions  []model.Question   `json:"questions"`
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	email := v.GetString("email")
	user, err := db.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no user with email %s", email)
	}

	topics, err := db.ListTopics(user.ID, "", "")
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	export := userExport{
		Email: user.Email,
		Statistics: model.Statistics{
			CorrectCount:     user.CorrectCount,
			GenerateCount:    user.GenerateCount,
			Accuracy:         user.Accuracy,
			NotAnsweredCount: user.NotAnsweredCount,
		},
		Topics: topics,
	}
	for _, t := range topics {
		questions, err := db.ListQuestionsByTopic(user.ID, t.Topic)
		if err != nil {
			return fmt.Errorf("list questions for %s: %w", t.Topic, err)
		}
		export.Questions = append(export.Questions, questions...)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
