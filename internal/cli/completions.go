package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

// completeTaskIDs returns a completion function that lists task ids with
// their titles, optionally excluding certain statuses.
func completeTaskIDs(excludeStatuses ...models.TaskStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if TaskMgr == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := TaskMgr.ListTasks(core.TaskFilter{Exclude: excludeStatuses})
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string
		for _, st := range tasks {
			id := strconv.Itoa(st.Task.ID)
			if toComplete == "" || strings.HasPrefix(id, toComplete) {
				ids = append(ids, id+"\t"+st.Task.Bucket+": "+st.Task.Title)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeTaskIDsThenStatuses completes a task id, then a status.
func completeTaskIDsThenStatuses(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeTaskIDs()(cmd, args, toComplete)
	}
	if len(args) == 1 {
		return completeStatuses(cmd, args, toComplete)
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// completeBuckets lists the standard planning buckets. Free-form buckets are
// still accepted.
func completeBuckets(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, b := range models.AllBuckets() {
		if b.Standard() && strings.HasPrefix(strings.ToLower(b.String()), strings.ToLower(toComplete)) {
			out = append(out, b.String())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeStatuses(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, s := range models.ValidTaskStatuses {
		if strings.HasPrefix(string(s), toComplete) {
			out = append(out, string(s))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
