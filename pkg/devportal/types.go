package devportal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"
)

// Credentials is the token set of a session. Each field is optional.
type Credentials struct {
	Token        string `json:"token,omitempty"        yaml:"token,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"  yaml:"access_token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty" yaml:"refresh_token,omitempty"`
}

// IsZero reports whether no token is set.
func (c Credentials) IsZero() bool {
	return c.Token == "" && c.AccessToken == "" && c.RefreshToken == ""
}

// Identity is the username and password used for the last explicit login.
type Identity struct {
	Username string
	Password string
}

// LoginResponse is the payload returned by the login endpoint.
type LoginResponse struct {
	Credentials

	Raw json.RawMessage `json:"-" yaml:"-"`
}

// Params holds request parameters. GET and DELETE send them as a query
// string, every other method as a JSON body.
type Params map[string]any

// ParamsFrom converts a request struct into Params using its mapstructure tags.
// Fields tagged omitempty are dropped when empty.
func ParamsFrom(v any) (Params, error) {
	params := Params{}

	err := mapstructure.Decode(v, &params)
	if err != nil {
		return nil, fmt.Errorf("converting %T to params: %w", v, err)
	}

	return params, nil
}

// ListOptions pages through a list endpoint.
type ListOptions struct {
	Offset int `mapstructure:"offset"`
	Limit  int `mapstructure:"limit"`
}

// AdminListOptions pages through the admin app listing.
type AdminListOptions struct {
	Filter string `mapstructure:"filter,omitempty"`
	Offset int    `mapstructure:"offset"`
	Limit  int    `mapstructure:"limit"`
}

// AdminGetOptions selects the app variant returned by the admin detail endpoint.
type AdminGetOptions struct {
	Published bool
}

// Vendor represents a vendor of the public catalog.
type Vendor struct {
	ID      string `json:"id"                yaml:"id"`
	Name    string `json:"name"              yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Email   string `json:"email,omitempty"   yaml:"email,omitempty"`
}

// VendorRef is the vendor of an app. Listings return only the vendor id,
// details return the whole vendor object.
type VendorRef struct {
	Vendor `yaml:",inline"`
}

// UnmarshalJSON accepts either a vendor id string or a vendor object.
func (v *VendorRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &v.ID)
	}

	return json.Unmarshal(data, &v.Vendor)
}

// AppRepository describes where the app image lives.
type AppRepository struct {
	Type    string         `json:"type"              mapstructure:"type"              yaml:"type"`
	URI     string         `json:"uri"               mapstructure:"uri"               yaml:"uri"`
	Tag     string         `json:"tag"               mapstructure:"tag"               yaml:"tag"`
	Options map[string]any `json:"options,omitempty" mapstructure:"options,omitempty" yaml:"options,omitempty"`
}

// AppIcon holds icon URLs keyed by size.
type AppIcon struct {
	Size32 string `json:"32,omitempty" yaml:"32,omitempty"`
	Size64 string `json:"64,omitempty" yaml:"64,omitempty"`
}

// App is an application registered in the developer portal.
// The complete response document is kept in Raw so no server attribute is lost.
type App struct {
	ID               string         `json:"id"                         yaml:"id"`
	Name             string         `json:"name"                       yaml:"name"`
	Type             string         `json:"type"                       yaml:"type"`
	Version          int            `json:"version"                    yaml:"version"`
	ShortDescription string         `json:"shortDescription,omitempty" yaml:"short_description,omitempty"`
	LongDescription  string         `json:"longDescription,omitempty"  yaml:"long_description,omitempty"`
	LicenseURL       string         `json:"licenseUrl,omitempty"       yaml:"license_url,omitempty"`
	DocumentationURL string         `json:"documentationUrl,omitempty" yaml:"documentation_url,omitempty"`
	URI              string         `json:"uri,omitempty"              yaml:"uri,omitempty"`
	IsPublic         bool           `json:"isPublic"                   yaml:"is_public"`
	IsDeprecated     bool           `json:"isDeprecated,omitempty"     yaml:"is_deprecated,omitempty"`
	CreatedOn        string         `json:"createdOn,omitempty"        yaml:"created_on,omitempty"`
	CreatedBy        string         `json:"createdBy,omitempty"        yaml:"created_by,omitempty"`
	Vendor           *VendorRef     `json:"vendor,omitempty"           yaml:"vendor,omitempty"`
	Repository       *AppRepository `json:"repository,omitempty"       yaml:"repository,omitempty"`
	Icon             *AppIcon       `json:"icon,omitempty"             yaml:"icon,omitempty"`

	Raw json.RawMessage `json:"-" yaml:"-"`
}

// UnmarshalJSON decodes the known attributes and keeps the raw document.
func (a *App) UnmarshalJSON(data []byte) error {
	type plain App

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}

	*a = App(decoded)
	a.Raw = append(json.RawMessage(nil), data...)

	return nil
}

// MarshalJSON returns the raw document when the app was decoded from a response.
func (a App) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}

	type plain App

	return json.Marshal(plain(a))
}

// Attributes returns the complete response document as a generic map.
func (a *App) Attributes() (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding app: %w", err)
	}

	var attrs map[string]any

	err = json.Unmarshal(data, &attrs)
	if err != nil {
		return nil, fmt.Errorf("decoding app attributes: %w", err)
	}

	return attrs, nil
}

// RepositoryCredentials grants push access to the app's image registry.
type RepositoryCredentials struct {
	Registry    string `json:"registry"    yaml:"registry"`
	Repository  string `json:"repository"  yaml:"repository"`
	Credentials struct {
		Username string `json:"username" yaml:"username"`
		Password string `json:"password" yaml:"password"`
	} `json:"credentials" yaml:"credentials"`
}

// AppCreateRequest is the payload for creating an app.
type AppCreateRequest struct {
	ID               string         `json:"id"                         mapstructure:"id"                         validate:"required"`
	Name             string         `json:"name"                       mapstructure:"name"                       validate:"required"`
	Type             string         `json:"type"                       mapstructure:"type"                       validate:"required"`
	ShortDescription string         `json:"shortDescription,omitempty" mapstructure:"shortDescription,omitempty"`
	LongDescription  string         `json:"longDescription,omitempty"  mapstructure:"longDescription,omitempty"`
	LicenseURL       string         `json:"licenseUrl,omitempty"       mapstructure:"licenseUrl,omitempty"       validate:"omitempty,url"`
	DocumentationURL string         `json:"documentationUrl,omitempty" mapstructure:"documentationUrl,omitempty" validate:"omitempty,url"`
	Repository       *AppRepository `json:"repository,omitempty"       mapstructure:"repository,omitempty"`

	// Extra carries attributes without a dedicated field; they override nothing set above.
	Extra map[string]any `json:"-" mapstructure:"-"`
}

// Params converts the request into request parameters.
func (r *AppCreateRequest) Params() (Params, error) {
	params, err := ParamsFrom(r)
	if err != nil {
		return nil, err
	}

	return mergeExtra(params, r.Extra), nil
}

// AppUpdateRequest is a partial update. Nil fields are left unchanged.
type AppUpdateRequest struct {
	Name             *string        `json:"name,omitempty"             mapstructure:"name,omitempty"`
	ShortDescription *string        `json:"shortDescription,omitempty" mapstructure:"shortDescription,omitempty"`
	LongDescription  *string        `json:"longDescription,omitempty"  mapstructure:"longDescription,omitempty"`
	LicenseURL       *string        `json:"licenseUrl,omitempty"       mapstructure:"licenseUrl,omitempty"       validate:"omitempty,url"`
	DocumentationURL *string        `json:"documentationUrl,omitempty" mapstructure:"documentationUrl,omitempty" validate:"omitempty,url"`
	Repository       *AppRepository `json:"repository,omitempty"       mapstructure:"repository,omitempty"`

	Extra map[string]any `json:"-" mapstructure:"-"`
}

// Params converts the request into request parameters.
func (r *AppUpdateRequest) Params() (Params, error) {
	params, err := ParamsFrom(r)
	if err != nil {
		return nil, err
	}

	return mergeExtra(params, r.Extra), nil
}

func mergeExtra(params Params, extra map[string]any) Params {
	merged := make(Params, len(params)+len(extra))
	maps.Copy(merged, extra)
	maps.Copy(merged, params)

	return merged
}
