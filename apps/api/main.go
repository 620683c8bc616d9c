package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/edulead/apps/api/echo"
	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/chat"
	"github.com/trezcool/edulead/core/lead"
	"github.com/trezcool/edulead/core/user"
	crmsvc "github.com/trezcool/edulead/services/crm"
	emailsvc "github.com/trezcool/edulead/services/email"
	logsvc "github.com/trezcool/edulead/services/logger"
	inmemdb "github.com/trezcool/edulead/storage/database/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	// set up DB
	db := inmemdb.Open()
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	lead.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	leadOpts := []lead.Option{lead.WithNotifications(mailSvc, conf.Notification.AdmissionsEmail)}
	if conf.CRM.Enabled {
		leadOpts = append(leadOpts, lead.WithCRM(crmsvc.NewMockClient(crmsvc.WithDelay(conf.CRM.Delay)), 0))
	}
	leadSvc := lead.NewService(inmemdb.NewLeadRepository(db), validate, logger, leadOpts...)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), validate)
	chatSvc := chat.NewService(inmemdb.NewChatRepository(db), validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if _, err := usrSvc.EnsureAdmin(conf.Admin.Username, conf.Admin.Password, conf.Admin.PasswordHash); err != nil {
		logger.Fatal(fmt.Sprintf("seeding admin user: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			LeadSvc:    leadSvc,
			UserSvc:    usrSvc,
			ChatSvc:    chatSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// let in-flight CRM syncs finish within the same deadline
		synced := make(chan struct{})
		go func() {
			leadSvc.Wait()
			close(synced)
		}()
		select {
		case <-synced:
		case <-ctx.Done():
			logger.Warn("shutdown deadline reached before CRM syncs finished")
		}
	}
}
