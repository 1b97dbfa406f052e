package commands

import (
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/pipeline"
	"github.com/smartcontractkit/app-release-framework/release"
	"github.com/smartcontractkit/app-release-framework/resolver"
	"github.com/smartcontractkit/app-release-framework/target"
)

func printPlan(cmd *cobra.Command, plan *release.Plan) {
	if plan == nil {
		return
	}
	published := plan.Resolved.Version.String()
	if !plan.Resolved.Authoritative {
		published += " (no source reported a version)"
	}
	cmd.Printf("Published version: %s\n", published)
	cmd.Printf("Release version:   %s\n", plan.Stamp)
}

func printSources(cmd *cobra.Command, resolved resolver.Resolved) {
	table := newTable(cmd, "Source", "Kind", "Version", "Duration", "Error")
	for _, o := range resolved.Outcomes {
		var errMsg string
		if o.Err != nil {
			errMsg = o.Err.Error()
		}
		table.Append([]string{o.Source, o.Kind.String(), o.Raw, round(o.Duration), errMsg})
	}
	table.Render()
}

// printOutcome prints one row per target and the names of the targets that did not succeed.
func printOutcome(cmd *cobra.Command, out *release.Outcome) {
	if out.Result == nil {
		return
	}

	table := newTable(cmd, "Target", "Status", "Duration", "Details")
	for _, rep := range out.Result.Reports {
		table.Append([]string{rep.Target, string(rep.Status), round(rep.Duration()), details(out, rep)})
	}
	table.Render()

	if failed := out.Result.Failed(); len(failed) > 0 {
		cmd.Printf("Failed targets: %s\n", strings.Join(failed, ", "))
	}
	if skipped := out.Result.Skipped(); len(skipped) > 0 {
		cmd.Printf("Skipped targets: %s\n", strings.Join(skipped, ", "))
	}
}

// details is the failure message of an unsuccessful target, otherwise the upload destination or
// the artifact path it produced.
func details(out *release.Outcome, rep pipeline.TargetReport) string {
	if rep.Status != pipeline.StatusSucceeded {
		return rep.Message
	}

	uploaded := out.Result.Name == release.PipelineUpload
	name := rep.Target
	if rest, ok := strings.CutPrefix(name, "upload-"); ok {
		name, uploaded = rest, true
	}
	name = strings.TrimPrefix(name, "build-")

	p, err := target.ParsePlatform(name)
	if err != nil {
		return ""
	}
	if r, ok := out.Receipts[p]; ok && uploaded {
		return r.Destination
	}
	if a, ok := out.Artifacts[p]; ok {
		return a.Path
	}

	return ""
}

func newTable(cmd *cobra.Command, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{
		Left:   false,
		Right:  false,
		Top:    true,
		Bottom: true,
	})

	return table
}

func round(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
