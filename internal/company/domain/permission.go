package domain

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Permission identifies one of the fixed company capability flags.
type Permission string

const (
	PermPartnerEnergia              Permission = "PARTNER_ENERGIA"
	PermConfigurazioneAmmissibilita Permission = "CONFIGURAZIONE_AMMISSIBILITA"
	PermConfigurazioneAssociazione  Permission = "CONFIGURAZIONE_ASSOCIAZIONE"
	PermMagazzino                   Permission = "MAGAZZINO"
	PermSpedizione                  Permission = "SPEDIZIONE"
	PermMonitoraggio                Permission = "MONITORAGGIO"
)

// Permissions lists every valid permission.
var Permissions = []Permission{
	PermPartnerEnergia,
	PermConfigurazioneAmmissibilita,
	PermConfigurazioneAssociazione,
	PermMagazzino,
	PermSpedizione,
	PermMonitoraggio,
}

var ErrInvalidPermission = errors.New("invalid_permission")

// ParsePermission validates a permission name against the closed set.
func ParsePermission(value string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Permissions {
		if p == known {
			return p, nil
		}
	}
	return "", ErrInvalidPermission
}

// DefaultPermissions is the vector used when a company has no permissions row:
// monitoring only.
func DefaultPermissions(companyID snowflake.ID) CompanyPermissions {
	return CompanyPermissions{CompanyID: companyID, Monitoraggio: true}
}

// Has reports whether the named flag is set.
func (p CompanyPermissions) Has(perm Permission) (bool, error) {
	switch perm {
	case PermPartnerEnergia:
		return p.PartnerEnergia, nil
	case PermConfigurazioneAmmissibilita:
		return p.ConfigurazioneAmmissibilita, nil
	case PermConfigurazioneAssociazione:
		return p.ConfigurazioneAssociazione, nil
	case PermMagazzino:
		return p.Magazzino, nil
	case PermSpedizione:
		return p.Spedizione, nil
	case PermMonitoraggio:
		return p.Monitoraggio, nil
	default:
		return false, ErrInvalidPermission
	}
}
