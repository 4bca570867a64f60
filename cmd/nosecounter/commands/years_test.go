package commands

import (
	"strings"
	"testing"

	"nosecounter/internal/dataset"
)

func TestYearsTable(t *testing.T) {
	m := dataset.Window(map[int]*dataset.YearlyDataset{
		2016: {Year: 2016, Convention: "Eurofurence", TotalCount: 2400},
		2017: {Year: 2017, Convention: "Eurofurence", TotalCount: 2600},
	}, 5)

	tests := []struct {
		name string
		live bool
		want []string
	}{
		{"live", true, []string{"2,400", "2,600", "+8.3%", "live", "Total: 2 years"}},
		{"archive only", false, []string{"archive", "Total: 2 years"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := yearsTable(m, 2017, tt.live)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("table missing %q:\n%s", w, got)
				}
			}
			if !tt.live && strings.Contains(got, "live") {
				t.Errorf("unexpected live source:\n%s", got)
			}
		})
	}
}
