package domain

import "strconv"

// ExportRow is one line of the flat table any presentation layer can
// render from the projected view.
type ExportRow struct {
	TradeName string  `json:"trade_name"`
	TaxID     string  `json:"tax_id"`
	City      string  `json:"city"`
	Status    string  `json:"status"`
	VolumeM3  float64 `json:"volume_m3"`
}

// ExportRows flattens an already-projected client list, one row per client.
func ExportRows(clients []Client) []ExportRow {
	rows := make([]ExportRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, ExportRow{
			TradeName: c.TradeName,
			TaxID:     c.TaxID,
			City:      c.OfficeAddress.City,
			Status:    string(c.Status),
			VolumeM3:  c.TotalVolume(),
		})
	}
	return rows
}

// CSV renders the row as strings in export column order.
func (r ExportRow) CSV() []string {
	return []string{
		r.TradeName,
		r.TaxID,
		r.City,
		r.Status,
		strconv.FormatFloat(r.VolumeM3, 'f', -1, 64),
	}
}
