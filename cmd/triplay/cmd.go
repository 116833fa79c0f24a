package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/scythe504/triplay-backend/internal/config"
	"github.com/scythe504/triplay-backend/internal/game"
	"github.com/scythe504/triplay-backend/internal/notify"
	"github.com/scythe504/triplay-backend/internal/server"
	"github.com/scythe504/triplay-backend/internal/store"
	"github.com/scythe504/triplay-backend/internal/utils"
	"github.com/scythe504/triplay-backend/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

func newCmd() *cobra.Command {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("[newCmd] %v", err)
	}

	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:           "triplay",
		Short:         "Backend for a three-player party game of questions, votes and dares.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cfg.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config.BindEnv(cmd.Flags())
	}

	cmd.AddCommand(newSeedCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("triplay v{{.Version}}\n")

	return cmd
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions from a CSV file into the question bank.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return errors.New("seed needs --store=postgres, the memory store does not outlive the process")
			}

			questions, err := utils.ReadQuestionsFile(file)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			added, err := st.AddQuestions(cmd.Context(), questions)
			if err != nil {
				return fmt.Errorf("seed questions: %w", err)
			}
			log.Printf("[seed] %d of %d questions added from %s", added, len(questions), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "questions.csv", "CSV file with type,category,text[,options] rows")
	return cmd
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Printf("[openStore] using in-memory store, nothing is persisted")
		return store.NewMemory(), nil
	}
	return store.NewPostgres(ctx, cfg.DatabaseURL)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Printf("START: triplay v%s", releaseVersion)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := websocket.NewHub(cfg.AllowedOrigins)

	// Without redis the hub is the notifier and updates stay in this process.
	var notifier game.Notifier = hub
	if cfg.RedisAddr != "" {
		if err := notify.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return err
		}
		defer notify.Close()
		log.Println("Redis connection established")

		notifier = notify.NewPublisher(notify.GetClient())
		go func() {
			if err := hub.ListenRedis(ctx, notify.GetClient()); err != nil {
				log.Printf("[serve] redis relay stopped: %v", err)
			}
		}()
	}

	svc := game.NewService(st, notifier)
	srv := server.NewServer(cfg, svc, hub).HTTPServer()

	errs := make(chan error, 1)
	go func() {
		log.Printf("SERVE: Listening on http://%s/", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("STOP: server shut down")
	return nil
}
