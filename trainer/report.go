package trainer

import "fmt"
import "io"

import "github.com/docker/go-units"
import "github.com/fatih/color"
import "github.com/olekukonko/tablewriter"

// PrintReport renders r as a table. checkpoint is the size in bytes of the
// saved model, 0 when none was written.
func PrintReport(w io.Writer, r Report, checkpoint int64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"metric", "mean", "std", "runs"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	good := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	mean := func(v, threshold float64) string {
		s := fmt.Sprintf("%.4f", v)
		if v <= threshold {
			return good(s)
		}
		return bad(s)
	}

	table.Append([]string{"discriminative", mean(r.Disc.Mean, 0.1), fmt.Sprintf("%.4f", r.Disc.Std), fmt.Sprint(len(r.DiscScores))})
	if r.PredSkipped {
		table.Append([]string{"predictive", "skipped", "", "0"})
	} else {
		table.Append([]string{"predictive", mean(r.Pred.Mean, 0.1), fmt.Sprintf("%.4f", r.Pred.Std), fmt.Sprint(len(r.PredScores))})
	}
	if checkpoint > 0 {
		table.SetFooter([]string{"checkpoint", units.HumanSize(float64(checkpoint)), "", ""})
	}
	table.Render()
}
