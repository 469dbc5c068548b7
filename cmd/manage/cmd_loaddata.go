package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"outfitted/internal/model"
	"outfitted/internal/repository"
	"outfitted/internal/repository/postgres"
	"outfitted/internal/service"
)

// fixture is the YAML document accepted by loaddata.
//
//	users:
//	  - email: ada@example.com
//	    first_name: Ada
//	    surname: Lovelace
//	    password: secret123
//	    tags: [Casual, Sport]
//	    items: [Shirt, Sneakers]
type fixture struct {
	Users []fixtureUser `yaml:"users"`
}

type fixtureUser struct {
	Email     string   `yaml:"email"`
	FirstName string   `yaml:"first_name"`
	Surname   string   `yaml:"surname"`
	Password  string   `yaml:"password"`
	Superuser bool     `yaml:"superuser"`
	Tags      []string `yaml:"tags"`
	Items     []string `yaml:"items"`
}

type loadSummary struct {
	UsersCreated  int
	UsersExisting int
	Tags          int
	Items         int
}

// loadDataCmd seeds users with their tags and items from a YAML file.
var loadDataCmd = &cobra.Command{
	Use:   "loaddata <file.yaml>",
	Short: "Load users, tags and items from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoadData,
}

func runLoadData(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	fx, err := parseFixture(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := postgres.NewUserPostgres(db)
	l := &fixtureLoader{
		users:    service.NewUserService(userRepo, postgres.NewTokenPostgres(db)),
		userRepo: userRepo,
		tags:     service.NewAttributeService(model.KindTag, postgres.NewAttributePostgres(db, model.KindTag)),
		items:    service.NewAttributeService(model.KindItem, postgres.NewAttributePostgres(db, model.KindItem)),
		log:      log,
	}
	sum, err := l.load(ctx, fx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %d user(s) (%d existing), %d tag(s), %d item(s)\n",
		sum.UsersCreated, sum.UsersExisting, sum.Tags, sum.Items)
	return nil
}

func parseFixture(r io.Reader) (*fixture, error) {
	var fx fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("fixture is empty")
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, u := range fx.Users {
		if u.Email == "" {
			return nil, fmt.Errorf("users[%d]: email is required", i)
		}
	}
	return &fx, nil
}

type fixtureLoader struct {
	users    service.UserService
	userRepo repository.UserRepository
	tags     service.AttributeService
	items    service.AttributeService
	log      *zap.Logger
}

// load creates missing users and then attaches every listed tag and item
// to the user. Existing users are reused, so a fixture can extend them.
func (l *fixtureLoader) load(ctx context.Context, fx *fixture) (loadSummary, error) {
	var sum loadSummary
	for _, fu := range fx.Users {
		u, created, err := l.ensureUser(ctx, fu)
		if err != nil {
			return sum, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		if created {
			sum.UsersCreated++
		} else {
			sum.UsersExisting++
			l.log.Info("fixture user exists", zap.String("email", u.Email))
		}

		for _, name := range fu.Tags {
			if _, err := l.tags.Create(ctx, u.ID, name); err != nil {
				return sum, fmt.Errorf("user %s tag %q: %w", fu.Email, name, err)
			}
			sum.Tags++
		}
		for _, name := range fu.Items {
			if _, err := l.items.Create(ctx, u.ID, name); err != nil {
				return sum, fmt.Errorf("user %s item %q: %w", fu.Email, name, err)
			}
			sum.Items++
		}
	}
	return sum, nil
}

func (l *fixtureLoader) ensureUser(ctx context.Context, fu fixtureUser) (*model.User, bool, error) {
	in := service.NewUser{Email: fu.Email, FirstName: fu.FirstName, Surname: fu.Surname, Password: fu.Password}
	create := l.users.CreateUser
	if fu.Superuser {
		create = l.users.CreateSuperuser
	}

	u, err := create(ctx, in)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, service.ErrEmailTaken) {
		return nil, false, err
	}
	u, err = l.userRepo.FindByEmail(ctx, service.NormalizeEmail(fu.Email))
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}
