package user

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/edulead/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// dummyHash is compared against when the username is unknown so that
	// Verify costs the same whether or not the user exists.
	dummyHash     []byte
	dummyHashOnce sync.Once
)

type (
	Repository interface {
		// CreateUser fails with ErrUsernameExists when the username is taken.
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id int) (User, error)
		GetUserByUsername(username string) (User, error)
	}

	Service interface {
		Create(nu NewUser) (User, error)
		QueryAll() ([]User, error)
		GetByID(id int) (User, error)
		GetByUsername(uname string) (User, error)
		// Verify returns ErrInvalidCredentials for both unknown users and wrong passwords.
		Verify(uname, pwd string) (User, error)
		// EnsureAdmin creates the administrator account unless it already exists.
		// pwdHash, a bcrypt hash, wins over pwd when both are set.
		EnsureAdmin(uname, pwd, pwdHash string) (User, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate) Service {
	return &service{repo: repo, validate: validate}
}

func (svc *service) Create(nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	role := nu.Role
	if role == "" {
		role = RoleAdmin
	}
	usr := User{
		Username:  nu.Username,
		Role:      role,
		CreatedAt: NowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.create(usr)
}

func (svc *service) create(usr User) (User, error) {
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *service) Verify(uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(uname)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, errors.Wrap(err, "finding user by username")
		}
		_ = bcrypt.CompareHashAndPassword(getDummyHash(), []byte(pwd))
		return User{}, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) EnsureAdmin(uname, pwd, pwdHash string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	usr, err := svc.repo.GetUserByUsername(uname)
	if err == nil {
		return usr, nil
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "finding admin user")
	}

	usr = User{
		Username:  uname,
		Role:      RoleAdmin,
		CreatedAt: NowFunc().UTC(),
	}
	if pwdHash != "" {
		if _, err := bcrypt.Cost([]byte(pwdHash)); err != nil {
			return User{}, errors.Wrap(err, "checking admin password hash")
		}
		usr.PasswordHash = []byte(pwdHash)
	} else if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			return User{}, errors.Wrap(err, "hashing admin password")
		}
	} else {
		return User{}, errors.New("admin password is not configured")
	}
	return svc.create(usr)
}

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}
