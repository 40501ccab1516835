package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	domainCatalog "github.com/ofertazap/ofertazap/domains/catalog"
	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/pkg/timeutils"
	"github.com/ofertazap/ofertazap/validations"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo catalog and a demo program for a quick start",
	Run:   seedDemo,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedDemo(_ *cobra.Command, _ []string) {
	ctx := context.Background()

	products := []domainCatalog.Product{
		{
			ID:       uuid.NewString(),
			Name:     "Fone Bluetooth TWS",
			Category: "eletronicos",
			Price:    129.90,
			Link:     "https://loja.example/fone-tws",
		},
		{
			ID:       uuid.NewString(),
			Name:     "Smartwatch Fit Pro",
			Category: "eletronicos",
			Price:    249.00,
			Link:     "https://loja.example/smartwatch-fit",
		},
		{
			ID:       uuid.NewString(),
			Name:     "Cafeteira Elétrica 600ml",
			Category: "casa",
			Price:    89.90,
			Link:     "https://loja.example/cafeteira",
		},
	}
	for _, p := range products {
		if err := catalogRepo.CreateProduct(ctx, p); err != nil {
			logrus.Fatalf("Failed to seed product %s: %v", p.Name, err)
		}
	}

	demo, err := demoProgram(ctx, time.Now().In(location), location)
	if err != nil {
		logrus.Fatalf("Demo program is invalid: %v", err)
	}
	if err := programRepo.CreateProgram(ctx, demo); err != nil {
		logrus.Fatalf("Failed to seed program: %v", err)
	}

	logrus.Infof("[SEED] Inserted %d products and program %s", len(products), demo.ID)
}

// demoProgram builds the seeded schedule. It is inserted active, so it must
// already carry its first computed slot.
func demoProgram(ctx context.Context, now time.Time, loc *time.Location) (domainProgram.Program, error) {
	demo := domainProgram.Program{
		ID:              uuid.NewString(),
		Name:            "Ofertas de Eletrônicos",
		Categories:      []string{"eletronicos"},
		IntervalMinutes: 30,
		StartTime:       "08:00",
		EndTime:         "22:00",
		AllowedWeekdays: []int{0, 1, 2, 3, 4, 5, 6},
		SelectionMode:   domainProgram.SelectionRotating,
		TargetMode:      domainProgram.TargetAllActiveGroups,
		Content: domainProgram.ContentOptions{
			Prefix:       "🔥 Oferta do dia!",
			Suffix:       "Corre que acaba!",
			IncludePrice: true,
			IncludeLink:  true,
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validations.ValidateProgramConfig(ctx, demo); err != nil {
		return domainProgram.Program{}, err
	}

	window := timeutils.Window{
		StartTime:       demo.StartTime,
		EndTime:         demo.EndTime,
		Weekdays:        demo.AllowedWeekdays,
		IntervalMinutes: demo.IntervalMinutes,
		Location:        loc,
	}
	next, err := window.NextEligible(now)
	if err != nil {
		return domainProgram.Program{}, err
	}
	demo.NextSendAt = &next
	return demo, nil
}
