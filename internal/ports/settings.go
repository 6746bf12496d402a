package ports

import "github.com/TroExol/LDmarket/internal/domain"

// SettingsSource expone la configuración de trading vigente. Las
// implementaciones pueden recargarla en caliente; Current devuelve
// siempre un snapshot consistente.
type SettingsSource interface {
	Current() domain.Settings
}
