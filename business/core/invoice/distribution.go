package invoice

import (
	"fmt"
	"strings"
)

// Sector is a destination of the collected IVA and its share.
type Sector struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// Sectors lists how the collected IVA is distributed. The shares add up to 1.
var Sectors = []Sector{
	{Name: "Salud", Share: 0.25},
	{Name: "Educación", Share: 0.20},
	{Name: "Infraestructura", Share: 0.20},
	{Name: "Defensa y Seguridad", Share: 0.15},
	{Name: "Ciencia y Tecnología", Share: 0.10},
	{Name: "Cultura y Deporte", Share: 0.05},
	{Name: "Administración General", Share: 0.05},
}

// Distribution is the configured sector split.
type Distribution struct {
	Sectors    []Sector `json:"sectors"`
	TotalShare float64  `json:"total_share"`
}

// DistributionConfig returns a copy of the sector split and the sum of the
// shares.
func DistributionConfig() Distribution {
	sectors := make([]Sector, len(Sectors))
	copy(sectors, Sectors)

	var total float64
	for _, s := range sectors {
		total += s.Share
	}

	return Distribution{
		Sectors:    sectors,
		TotalShare: round(total),
	}
}

// Allocation is the amount of IVA assigned to a sector.
type Allocation struct {
	Sector string  `json:"sector"`
	Share  float64 `json:"share"`
	Amount float64 `json:"amount"`
}

// Distribute splits the IVA amount across the sectors.
func Distribute(iva float64) []Allocation {
	allocs := make([]Allocation, len(Sectors))
	for i, s := range Sectors {
		allocs[i] = Allocation{
			Sector: s.Name,
			Share:  s.Share,
			Amount: round(iva * s.Share),
		}
	}

	return allocs
}

func summarize(allocs []Allocation) string {
	parts := make([]string, len(allocs))
	for i, a := range allocs {
		parts[i] = fmt.Sprintf("%s %.2f", a.Sector, a.Amount)
	}

	return strings.Join(parts, ", ")
}
