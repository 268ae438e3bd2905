package uac

import (
	"fmt"

	"billing-backend/internal/models"
)

// Dispatcher selects the connector for an organization. Wave and Dynamics
// create invoices directly against their APIs; QuickBooks and everything
// else create through the aggregator.
type Dispatcher struct {
	generic    *GenericClient
	wave       *WaveClient
	dynamics   *DynamicsClient
	quickbooks *QuickBooksClient
}

func NewDispatcher(generic *GenericClient, wave *WaveClient, dynamics *DynamicsClient, quickbooks *QuickBooksClient) *Dispatcher {
	return &Dispatcher{generic: generic, wave: wave, dynamics: dynamics, quickbooks: quickbooks}
}

// ForOrganization returns the connector the organization's invoices are
// created through. QuickBooks organizations always create through the
// aggregator but keep their own connector for the hosted payment link.
func (d *Dispatcher) ForOrganization(org *models.Organization) (Connector, error) {
	if !org.DirectCreate {
		if org.Platform == models.PlatformQuickBooks {
			return d.quickbooks, nil
		}
		return d.generic, nil
	}

	switch org.Platform {
	case models.PlatformWave:
		return d.wave, nil
	case models.PlatformDynamics365:
		return d.dynamics, nil
	case models.PlatformQuickBooks:
		return d.quickbooks, nil
	default:
		return nil, fmt.Errorf("platform %s is not supported for direct invoice creation", org.Platform)
	}
}
