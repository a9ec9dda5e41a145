package service

// Nested site / mix / contact operations. All of them follow the same
// shape: locate the parent client, rebuild the affected child list as a
// new slice, persist the whole collection. Updates against an ID that no
// longer exists are silent no-ops; removals delete at most one entry.

import (
	"context"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
)

// --- Sites ---

// AddSite appends an empty site to the client and returns the updated client.
func (s *ClientsService) AddSite(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.AddSite", clientID, func(c domain.Client) (domain.Client, error) {
		c.Sites = domain.Append(c.Sites, domain.NewSite())
		return c, nil
	})
}

// UpdateSite replaces the matching site wholesale.
func (s *ClientsService) UpdateSite(ctx context.Context, clientID string, site domain.Site) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.UpdateSite", clientID, func(c domain.Client) (domain.Client, error) {
		c.Sites = domain.Replace(c.Sites, site)
		return c, nil
	})
}

// RemoveSite deletes a site and everything it owns (mixes, contacts).
func (s *ClientsService) RemoveSite(ctx context.Context, clientID, siteID string) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.RemoveSite", clientID, func(c domain.Client) (domain.Client, error) {
		c.Sites = domain.Remove(c.Sites, siteID)
		return c, nil
	})
}

// MergeSiteAddress overlays a fetched address onto one site's address.
func (s *ClientsService) MergeSiteAddress(ctx context.Context, clientID, siteID string, addr domain.AddressResult) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.MergeSiteAddress", clientID, func(c domain.Client) (domain.Client, error) {
		site, ok := domain.Find(c.Sites, siteID)
		if !ok {
			return c, &domain.ErrNotFound{Resource: "site", ID: siteID}
		}
		site.Address = domain.MergeAddress(site.Address, addr)
		c.Sites = domain.Replace(c.Sites, site)
		return c, nil
	})
}

// --- Mixes ---

// AddMix appends an empty mix to a site.
func (s *ClientsService) AddMix(ctx context.Context, clientID, siteID string) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.AddMix", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Mixes = domain.Append(site.Mixes, domain.NewMix())
		return site, nil
	})
}

// UpdateMix replaces the matching mix on a site.
func (s *ClientsService) UpdateMix(ctx context.Context, clientID, siteID string, mix domain.Mix) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.UpdateMix", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Mixes = domain.Replace(site.Mixes, mix)
		return site, nil
	})
}

// RemoveMix deletes one mix from a site.
func (s *ClientsService) RemoveMix(ctx context.Context, clientID, siteID, mixID string) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.RemoveMix", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Mixes = domain.Remove(site.Mixes, mixID)
		return site, nil
	})
}

// --- Contacts (client-level) ---

// AddContact appends an empty contact at the client level.
func (s *ClientsService) AddContact(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.AddContact", clientID, func(c domain.Client) (domain.Client, error) {
		c.Contacts = domain.Append(c.Contacts, domain.NewContact())
		return c, nil
	})
}

// UpdateContact replaces a client-level contact.
func (s *ClientsService) UpdateContact(ctx context.Context, clientID string, contact domain.Contact) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.UpdateContact", clientID, func(c domain.Client) (domain.Client, error) {
		c.Contacts = domain.Replace(c.Contacts, contact)
		return c, nil
	})
}

// RemoveContact deletes a client-level contact.
func (s *ClientsService) RemoveContact(ctx context.Context, clientID, contactID string) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.RemoveContact", clientID, func(c domain.Client) (domain.Client, error) {
		c.Contacts = domain.Remove(c.Contacts, contactID)
		return c, nil
	})
}

// --- Contacts (site-level) ---

// AddSiteContact appends an empty contact to a site.
func (s *ClientsService) AddSiteContact(ctx context.Context, clientID, siteID string) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.AddSiteContact", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Contacts = domain.Append(site.Contacts, domain.NewContact())
		return site, nil
	})
}

// UpdateSiteContact replaces a site-level contact.
func (s *ClientsService) UpdateSiteContact(ctx context.Context, clientID, siteID string, contact domain.Contact) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.UpdateSiteContact", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Contacts = domain.Replace(site.Contacts, contact)
		return site, nil
	})
}

// RemoveSiteContact deletes a site-level contact.
func (s *ClientsService) RemoveSiteContact(ctx context.Context, clientID, siteID, contactID string) (*domain.Client, error) {
	return s.withSite(ctx, "ClientsService.RemoveSiteContact", clientID, siteID, func(site domain.Site) (domain.Site, error) {
		site.Contacts = domain.Remove(site.Contacts, contactID)
		return site, nil
	})
}

// withSite narrows mutate down to one site of the client.
func (s *ClientsService) withSite(ctx context.Context, op, clientID, siteID string, fn func(domain.Site) (domain.Site, error)) (*domain.Client, error) {
	return s.mutate(ctx, op, clientID, func(c domain.Client) (domain.Client, error) {
		site, ok := domain.Find(c.Sites, siteID)
		if !ok {
			return c, &domain.ErrNotFound{Resource: "site", ID: siteID}
		}
		updated, err := fn(site)
		if err != nil {
			return c, err
		}
		c.Sites = domain.Replace(c.Sites, updated)
		return c, nil
	})
}
