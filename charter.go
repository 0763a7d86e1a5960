package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wansing/charter/api"
	"github.com/wansing/charter/core"
	"github.com/wansing/charter/sqldb"
	"github.com/wansing/charter/sqldb/mysql"
	"github.com/wansing/charter/sqldb/sqlite3"
	"github.com/wansing/charter/util"
	"github.com/xo/dburl"
	"golang.org/x/crypto/ssh/terminal"
)

func init() {
	log.SetFlags(0) // no log prefixes, on most systems systemd-journald adds them
}

func main() {

	// config file values are flag defaults, flags win

	var defaults = map[string]string{
		"db":     "sqlite3:charter.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared",
		"listen": "127.0.0.1:8080",
		"base":   "",
	}
	if fileConfig, err := util.Ini("charter.ini"); err == nil {
		for key, value := range fileConfig {
			defaults[key] = value
		}
	}

	var dbArg string // is in both FlagSets

	// default FlagSet

	var base = flag.String("base", defaults["base"], "strip off this `prefix` from every HTTP request")
	flag.StringVar(&dbArg, "db", defaults["db"], "sql database url, see github.com/xo/dburl")
	var listenAddr = flag.String("listen", defaults["listen"], "serve HTTP content at this `ip:port`")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	initFlags.StringVar(&dbArg, "db", defaults["db"], "sql database url, see github.com/xo/dburl") // copied from above
	var initInsertUser = initFlags.String("insert-user", "", "creates a user with the given `email`, prompting for a password")
	var initFirstName = initFlags.String("first", "", "first `name` for -insert-user")
	var initLastName = initFlags.String("last", "", "last `name` for -insert-user")
	var initRole = initFlags.String("role", string(core.Volunteer), "`role` for -insert-user")
	var initMakeAdmin = initFlags.String("make-admin", "", "gives the admin role to the user with the given `email`")
	var initSeed = initFlags.String("seed", "", "loads users, categories and documents from the given yaml `file`")

	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	// database

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		log.Printf("could not parse database url: %v", err)
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		log.Printf("could not open sql database: %v", err)
		return
	}

	if err = sqlDB.Ping(); err != nil {
		log.Printf("could not ping sql database: %v", err)
		return
	}

	log.Printf("using database %s", dbURL.String())

	// base

	*base = strings.Trim(*base, "/")
	if *base != "" {
		*base = "/" + *base
	}

	// assemble stuff

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore = sqlite3.NewSessionStore(sqlDB)
	default:
		log.Printf("unknown database backend: %s", dbURL.Driver)
		return
	}

	db := &core.CoreDB{}
	err = db.Init(sessionStore, *base)
	if err != nil {
		log.Println(err) // log.Fatalln would not run deferred functions
		return
	}

	db.ActivityDB = sqldb.NewActivityDB(sqlDB)
	db.ApprovalDB = sqldb.NewApprovalDB(sqlDB)
	db.CategoryDB = sqldb.NewCategoryDB(sqlDB)
	db.DocumentDB = sqldb.NewDocumentDB(sqlDB)
	db.FormFieldDB = sqldb.NewFormFieldDB(sqlDB)
	db.UserDB = sqldb.NewUserDB(sqlDB)
	db.SqlDB = sqlDB

	defer func() {
		log.Println("closing database")
		sqlDB.Close()
	}()

	// init

	if initFlags.Parsed() {
		switch {
		case *initInsertUser != "":
			role, err := core.ParseRole(*initRole)
			if err != nil {
				log.Println(err)
				return
			}
			insertUser(db, *initInsertUser, *initFirstName, *initLastName, role)
		case *initMakeAdmin != "":
			makeAdmin(db, *initMakeAdmin)
		case *initSeed != "":
			if err := seed(db, *initSeed); err != nil {
				log.Printf("error seeding: %v", err)
			}
		}
		return
	}

	listen(db, *listenAddr, *base)
}

func insertUser(db *core.CoreDB, email, firstName, lastName string, role core.Role) {

	fmt.Printf("password for user %s: ", email)
	pass1, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	fmt.Printf("repeat password: ")
	pass2, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	if !bytes.Equal(pass1, pass2) {
		log.Printf("passwords don't match")
		return
	}

	user, err := db.InsertUser(email, firstName, lastName, role)
	if err != nil {
		log.Printf("error creating user %s: %v", email, err)
		return
	}

	if err := db.SetPassword(user, string(pass1)); err != nil {
		log.Printf("error setting password: %v", err)
		return
	}
}

func makeAdmin(db *core.CoreDB, email string) {

	user, err := db.GetUserByEmail(email)
	if err != nil {
		log.Printf("error getting user %s: %v", email, err)
		return
	}

	if err := db.SetRole(user, core.Admin); err != nil {
		log.Printf("error setting role: %v", err)
		return
	}
}

func listen(db *core.CoreDB, addr string, base string) {

	var handler = db.SessionManager.LoadAndSave(api.NewRouter(db))
	if base != "" {
		handler = http.StripPrefix(base, handler)
	}

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Println(err)
		return
	}

	log.Printf("listening to %s", addr)

	httpSrv := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				log.Printf("error listening: %v", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	log.Println("shutting down")
	httpSrv.Close()
}
