package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	dphttp "github.com/keboola/developer-portal-client-go/internal/http"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/tidwall/gjson"
)

// Requester issues a request without the session token and classifies the
// failure: a 401 from an authentication endpoint is an auth error, any other
// non-2xx response a remote error.
type Requester interface {
	Request(ctx context.Context, method, path string, params devportal.Params, headers map[string]string) (*dphttp.Response, error)
}

// Authenticator performs login and token refresh against a Session.
// Calls are serialised so concurrent refreshes on a shared client do not interleave.
type Authenticator struct {
	session   *Session
	requester Requester
	persister devportal.CredentialsPersister
	logger    devportal.Logger
	mutex     sync.Mutex
}

// NewAuthenticator creates an authenticator. Persister and logger are optional.
func NewAuthenticator(session *Session, requester Requester, persister devportal.CredentialsPersister, logger devportal.Logger) *Authenticator {
	if logger == nil {
		logger = devportal.NopLogger{}
	}

	return &Authenticator{
		session:   session,
		requester: requester,
		persister: persister,
		logger:    logger,
	}
}

// Login exchanges username and password for the session tokens. The identity
// is remembered even when the exchange fails. A response without a token is
// an auth error regardless of its status.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*devportal.LoginResponse, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.login(ctx, devportal.Identity{Username: username, Password: password})
}

// Refresh obtains a new bearer token with the refresh token and stores it,
// leaving the other tokens untouched. Without a refresh token the last
// identity is logged in again.
func (a *Authenticator) Refresh(ctx context.Context) (string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	creds := a.session.Credentials()

	if creds.RefreshToken == "" {
		identity := a.session.Identity()
		if identity.Username == "" {
			return "", devportal.NewUserError(constants.MsgLoginRequired)
		}

		a.logger.Debug("No refresh token, logging in again", map[string]interface{}{"username": identity.Username})

		resp, err := a.login(ctx, identity)
		if err != nil {
			return "", err
		}

		return resp.Token, nil
	}

	resp, err := a.requester.Request(ctx, http.MethodGet, constants.PathToken, nil, map[string]string{
		constants.HeaderAuthorization: creds.RefreshToken,
	})
	if err != nil {
		return "", err
	}

	token := gjson.GetBytes(resp.Body, "token").String()
	if token == "" {
		return "", devportal.NewAuthError(constants.PathToken, resp.Body, constants.MsgMissingToken)
	}

	updated := a.session.setToken(token)
	a.logger.Debug("Token refreshed", nil)
	a.persist(updated)

	return token, nil
}

func (a *Authenticator) login(ctx context.Context, identity devportal.Identity) (*devportal.LoginResponse, error) {
	a.session.setIdentity(identity)

	resp, err := a.requester.Request(ctx, http.MethodPost, constants.PathLogin, devportal.Params{
		"email":    identity.Username,
		"password": identity.Password,
	}, nil)
	if err != nil {
		return nil, err
	}

	result := gjson.ParseBytes(resp.Body)

	token := result.Get("token").String()
	if token == "" {
		return nil, devportal.NewAuthError(constants.PathLogin, resp.Body, constants.MsgMissingToken)
	}

	creds := devportal.Credentials{
		Token:        token,
		AccessToken:  result.Get("accessToken").String(),
		RefreshToken: result.Get("refreshToken").String(),
	}

	a.session.replaceCredentials(creds)
	a.logger.Debug("Logged in", map[string]interface{}{"username": identity.Username})
	a.persist(creds)

	return &devportal.LoginResponse{
		Credentials: creds,
		Raw:         append([]byte(nil), resp.Body...),
	}, nil
}
