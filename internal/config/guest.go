package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// GuestProfile is the on-disk form of the booking identity:
//
//	first_name: Ada
//	last_name: Lovelace
//	email: ada@example.com
//	phone: "+1 555 0100"
type GuestProfile struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

func LoadGuestProfile(path string) (GuestProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GuestProfile{}, errors.Wrapf(err, "read guest profile %s", path)
	}
	var p GuestProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return GuestProfile{}, errors.Wrapf(err, "parse guest profile %s", path)
	}
	return p, nil
}

// fill returns g with empty fields taken from the profile. Environment
// values always win.
func (p GuestProfile) fill(g GuestConfig) GuestConfig {
	if g.FirstName == "" {
		g.FirstName = p.FirstName
	}
	if g.LastName == "" {
		g.LastName = p.LastName
	}
	if g.Email == "" {
		g.Email = p.Email
	}
	if g.Phone == "" {
		g.Phone = p.Phone
	}
	return g
}
