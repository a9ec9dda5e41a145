package domain

// Field-level merge rules for data fetched from external collaborators:
// a non-empty incoming value replaces the existing one, an empty incoming
// value leaves the existing value untouched.

func override(existing, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

// MergeAddress overlays fetched address fields onto addr.
func MergeAddress(addr Address, fetched AddressResult) Address {
	addr.Street = override(addr.Street, fetched.Street)
	addr.Number = override(addr.Number, fetched.Number)
	addr.District = override(addr.District, fetched.District)
	addr.City = override(addr.City, fetched.City)
	addr.State = override(addr.State, fetched.State)
	addr.PostalCode = override(addr.PostalCode, NormalizeTaxID(fetched.PostalCode))
	return addr
}

// MergeRegistryRecord overlays a tax-registry record onto a client.
func MergeRegistryRecord(c Client, rec RegistryRecord) Client {
	c.LegalName = override(c.LegalName, rec.LegalName)
	c.TradeName = override(c.TradeName, rec.TradeName)
	c.TaxID = override(c.TaxID, rec.TaxID)
	c.Phone = override(c.Phone, rec.Phone)
	c.Email = override(c.Email, rec.Email)
	c.PrimaryActivity = override(c.PrimaryActivity, rec.PrimaryActivity)
	if rec.ShareCapital != 0 {
		c.ShareCapital = rec.ShareCapital
	}
	c.OfficeAddress = MergeAddress(c.OfficeAddress, rec.Address)
	return c
}
