package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"example.com/storefront/internal/app"
	"example.com/storefront/internal/config"
	domcart "example.com/storefront/internal/domain/cart"
	domcheckout "example.com/storefront/internal/domain/checkout"
	domproduct "example.com/storefront/internal/domain/product"
	"example.com/storefront/internal/infra/security"
	"example.com/storefront/internal/infra/widget"
	httpapi "example.com/storefront/internal/interface/http"
	"example.com/storefront/internal/logger"
	authuc "example.com/storefront/internal/usecase/auth"
	cartuc "example.com/storefront/internal/usecase/cart"
)

type globalFlags struct {
	configPath string
	logLevel   string
	sessionID  string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Shoplane storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.sessionID, "session", "local", "Session id used by the shopping commands")

	cmd.AddCommand(
		serveCmd(&g),
		catalogCmd(&g),
		cartCmd(&g),
		loginCmd(&g),
		tokenCmd(&g),
		logoutCmd(&g),
		checkoutCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.App.LogLevel = g.logLevel
	}
	return cfg, nil
}

// openLocal builds the app for the shopping commands. The memory driver
// would forget the cart between invocations, so it is swapped for the file
// driver here.
func openLocal(cmd *cobra.Command, g *globalFlags, fe app.Frontend) (*app.App, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == config.DriverMemory {
		cfg.Storage.Driver = config.DriverFile
	}
	log := logger.New(logger.Options{
		Service: appName,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Output:  cmd.ErrOrStderr(),
	})
	return app.New(cmd.Context(), cfg, log, fe)
}

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{Service: appName, Env: cfg.App.Env, Level: cfg.App.LogLevel})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log, app.Frontend{})
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					log.Error("close app", "error", err)
				}
			}()

			api := httpapi.NewAPI(httpapi.Dependencies{
				AuthService:     a.Auth,
				CartService:     a.Cart,
				CatalogService:  a.Catalog,
				CheckoutService: a.Checkout,
				Widget:          a.Bridge,
				Metrics:         a.Metrics.Handler(),
				SecureCookie:    cfg.App.Env != "dev",
			})
			srv := &http.Server{
				Addr:              ":" + strconv.Itoa(cfg.App.Port),
				Handler:           api.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", srv.Addr, "storage", cfg.Storage.Driver)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
}

var errNoProductStore = errors.New("catalog add needs the mysql catalog source (CATALOG_SOURCE=mysql)")

func catalogCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the storefront buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal(cmd, g, app.Frontend{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := cmd.OutOrStdout()
			sf := a.Catalog.LoadProducts(cmd.Context())
			if sf.Demo {
				fmt.Fprintf(out, "[demo] %s\n", sf.Error)
			}
			for _, b := range sf.Buckets {
				fmt.Fprintf(out, "\n%s %s\n", b.Icon, b.Title)
				if b.Notice != "" {
					fmt.Fprintf(out, "  %s\n", b.Notice)
				}
				if b.Empty {
					fmt.Fprintf(out, "  %s\n", b.EmptyMessage)
					continue
				}
				for _, c := range b.Cards {
					fmt.Fprintf(out, "  #%-4d %-30s %12s  %s\n", c.ProductID, c.Name, c.PriceLabel, c.Category)
				}
			}
			return nil
		},
	}

	var in struct {
		name        string
		price       string
		category    string
		image       string
		description string
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the MySQL catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(in.price)
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			a, err := openLocal(cmd, g, app.Frontend{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			if a.Products == nil {
				return errNoProductStore
			}

			p, err := a.Products.Create(cmd.Context(), &domproduct.Product{
				Name:        in.name,
				Description: in.description,
				Price:       price,
				Category:    in.category,
				ImageURL:    in.image,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added product #%d %s\n", p.ID, p.Name)
			return nil
		},
	}
	add.Flags().StringVar(&in.name, "name", "", "Product name")
	add.Flags().StringVar(&in.price, "price", "0", "Unit price")
	add.Flags().StringVar(&in.category, "category", "", "Category, e.g. Clothing or Electronics")
	add.Flags().StringVar(&in.image, "image", "", "Image URL")
	add.Flags().StringVar(&in.description, "description", "", "Description")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

func cartCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, g, func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error) {
				return svc.View(ctx, sid)
			})
		},
	}

	var in struct {
		id    int64
		name  string
		price string
		image string
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(in.price)
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			return withCart(cmd, g, func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error) {
				return svc.AddItem(ctx, sid, domcart.AddInput{ProductID: in.id, Name: in.name, Price: price, ImageURL: in.image})
			})
		},
	}
	add.Flags().Int64Var(&in.id, "id", 0, "Product id")
	add.Flags().StringVar(&in.name, "name", "", "Product name")
	add.Flags().StringVar(&in.price, "price", "0", "Unit price")
	add.Flags().StringVar(&in.image, "image", "", "Image URL")
	_ = add.MarkFlagRequired("id")

	change := &cobra.Command{
		Use:   "change LINE DELTA",
		Short: "Change the quantity of a line (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("line: %w", err)
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta: %w", err)
			}
			return withCart(cmd, g, func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error) {
				return svc.ChangeQuantity(ctx, sid, line-1, delta)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove LINE",
		Short: "Remove a line (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("line: %w", err)
			}
			return withCart(cmd, g, func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error) {
				return svc.RemoveItem(ctx, sid, line-1)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, g, func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error) {
				return svc.Clear(ctx, sid)
			})
		},
	}

	cmd.AddCommand(add, change, remove, clearCmd)
	return cmd
}

func withCart(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, svc *cartuc.Service, sid string) (cartuc.View, error)) error {
	a, err := openLocal(cmd, g, app.Frontend{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	view, err := fn(cmd.Context(), a.Cart, g.sessionID)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), view.Text())
	return err
}

func loginCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login TOKEN",
		Short: "Attach a login token to the local session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal(cmd, g, app.Frontend{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			id, err := a.Auth.Login(cmd.Context(), g.sessionID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", id.DisplayName("Customer"), id.Email)
			return nil
		},
	}
}

// tokenCmd signs a login token with the configured secret, for local use
// when the login service is not running.
func tokenCmd(g *globalFlags) *cobra.Command {
	var claims authuc.Claims
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a login token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			token, err := security.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).GenerateToken(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&claims.Email, "email", "", "Customer email")
	cmd.Flags().StringVar(&claims.Name, "name", "", "Customer name")
	cmd.Flags().Int64Var(&claims.UserID, "uid", 0, "Customer user id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local login",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal(cmd, g, app.Frontend{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if err := a.Auth.Logout(cmd.Context(), g.sessionID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func checkoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Pay for the cart through the terminal widget",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLocal(cmd, g, app.Frontend{
				PaymentUI: widget.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()),
				Presenter: widget.NewConsole(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out, err := a.Checkout.Start(cmd.Context(), g.sessionID)
			switch {
			case errors.Is(err, domcheckout.ErrEmptyCart),
				errors.Is(err, domcheckout.ErrInvalidTotal),
				errors.Is(err, domcheckout.ErrNotLoggedIn):
				// already shown by the presenter
				return nil
			case err != nil:
				return err
			}
			a.Logger.Debug("checkout finished", "state", out.State)
			return nil
		},
	}
}
