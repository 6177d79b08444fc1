package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/dashboard"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// set up logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up validators
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up storage
	var store school.Store
	var usrRepo user.Repository
	switch conf.Database.Engine {
	case "postgres":
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()
		store = sqlxrepos.NewStore(db)
		usrRepo = sqlxrepos.NewUserRepository(db)
	default:
		// volatile storage for local hacking
		db, err := inmemdb.Open()
		if err != nil {
			logger.Fatal("opening in-memory database", err)
		}
		store = inmemdb.NewStore(db)
		usrRepo = inmemdb.NewUserRepository(db)
	}

	// set up services
	usrSvc := user.NewService(usrRepo, validate)
	resolver := access.NewResolver(store, logger)
	gateway := access.NewGateway(store, resolver, logger)
	dashSvc := dashboard.NewService(gateway, logger)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Addr:       conf.Server.Addr,
		UserSvc:    usrSvc,
		Gateway:    gateway,
		Dashboard:  dashSvc,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	app.Start()
}
