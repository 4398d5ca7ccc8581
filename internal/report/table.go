package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func WriteTable(r *Report, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== Ranking Quality Report: %s ===\n\n", r.Name)

	writeFunnelTable(tw, r)
	writeBucketTable(tw, r)
	writeOpportunityTable(tw, r)

	tw.Flush()
}

func writeFunnelTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "--- Funnel (policy=%s, window=%s) ---\n\n", r.Config.Policy, r.Config.Window)

	fmt.Fprintf(tw, "Sessions\t%d\n", r.Funnel.Sessions)
	fmt.Fprintf(tw, "Impressions\t%d\n", r.Funnel.Impressions)
	fmt.Fprintf(tw, "Clicks\t%d\t(CTR %.2f%%)\n", r.Funnel.Clicks, r.Funnel.CTRPct)
	fmt.Fprintf(tw, "Purchases\t%d\t(PTR %.2f%%, conv %.2f%%)\n", r.Funnel.Purchases, r.Funnel.PTRPct, r.Funnel.ConversionPct)
	fmt.Fprintf(tw, "Attributed revenue\t$%.2f\n", r.Funnel.Revenue)

	for _, k := range r.Config.Cutoffs {
		fmt.Fprintf(tw, "NDCG@%d\t%.4f mean\t%.4f median\t(%d no-signal)\n",
			k, r.Funnel.MeanNDCG[k], r.Funnel.MedianNDCG[k], r.Funnel.NoSignalSessions[k])
	}

	if r.Funnel.MalformedRows > 0 || r.Funnel.Collisions > 0 || r.Funnel.OrphanedRows > 0 {
		fmt.Fprintf(tw, "Data quality\t%d malformed\t%d collisions\t%d orphaned\n",
			r.Funnel.MalformedRows, r.Funnel.Collisions, r.Funnel.OrphanedRows)
	}

	fmt.Fprintln(tw)
}

func writeBucketTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "--- Buckets by %s (NDCG@%d, median reference %.4f) ---\n\n",
		r.Config.Dimension, r.Config.PrimaryK, r.ReferenceNDCG)

	header := []string{r.Config.Dimension, "Sessions", "Mean NDCG", "Median NDCG", "Deviation", "Revenue"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, separator(len(header)))

	for _, b := range r.Buckets {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%+.1f%%\t$%.2f\n",
			b.Value, b.Sessions, b.MeanNDCG, b.MedianNDCG, b.DeviationPct, b.Revenue)
	}

	if len(r.Excluded) > 0 {
		fmt.Fprintf(tw, "\nExcluded (< %d sessions):\n", r.Config.MinSampleSize)
		for _, e := range r.Excluded {
			fmt.Fprintf(tw, "%s\t%d sessions\n", e.Value, e.Sessions)
		}
	}

	fmt.Fprintln(tw)
}

func writeOpportunityTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "--- Revenue opportunity (%s) ---\n\n", r.Model)

	header := []string{r.Config.Dimension, "NDCG", "Gap", "Revenue", "Uplift", "Annualized"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, separator(len(header)))

	for _, o := range r.Opportunities {
		fmt.Fprintf(tw, "%s\t%.4f\t%.1f%%\t$%.2f\t$%.2f\t$%.2f\n",
			o.Value, o.NDCG, o.GapPct, o.Revenue, o.Uplift, o.UpliftAnnualized)
	}

	fmt.Fprintf(tw, "\nTotal uplift to median\t$%.2f\n\n", r.TotalUplift)
}

func separator(n int) string {
	sep := make([]string, n)
	for i := range sep {
		sep[i] = "---"
	}
	return strings.Join(sep, "\t")
}
