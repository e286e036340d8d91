package hubctl

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"modelhub/internal/download"
)

func serverDefault() string {
	if v := os.Getenv("MODELHUB_SERVER"); v != "" {
		return v
	}
	return "http://127.0.0.1:8090"
}

// BuildRootCmd constructs the hubctl command tree.
func BuildRootCmd() *cobra.Command {
	var server string

	root := &cobra.Command{
		Use:           "hubctl",
		Short:         "Discover, download and manage models served by modelhubd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", serverDefault(), "Base URL of the modelhubd API (defaults MODELHUB_SERVER)")

	client := func() *apiClient { return newAPIClient(server) }

	var (
		searchType    string
		searchSize    string
		searchQuant   string
		searchArch    string
		searchExcl    string
		searchTags    string
		searchMaxMB   int64
		searchMinDls  int
		searchMinLike int
	)
	searchCmd := &cobra.Command{
		Use:     "search",
		Short:   "Search the remote registry for compatible models",
		Example: "  hubctl search --type chat --size small --arch qwen",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			set := func(k, v string) {
				if v != "" {
					q.Set(k, v)
				}
			}
			set("type", searchType)
			set("size", searchSize)
			set("quant", searchQuant)
			set("arch", searchArch)
			set("exclude", searchExcl)
			set("tags", searchTags)
			if searchMaxMB > 0 {
				q.Set("max_mb", strconv.FormatInt(searchMaxMB, 10))
			}
			if searchMinDls > 0 {
				q.Set("min_downloads", strconv.Itoa(searchMinDls))
			}
			if searchMinLike > 0 {
				q.Set("min_likes", strconv.Itoa(searchMinLike))
			}
			models, err := client().Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPARAMS\tQUANT\tSIZE\tDOWNLOADS\tLIKES")
			for _, m := range models {
				size := "-"
				if m.EstimatedSizeBytes > 0 {
					size = humanize.IBytes(uint64(m.EstimatedSizeBytes))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					m.ID, orDash(m.Parameters), orDash(m.Quantization), size,
					humanize.Comma(int64(m.Downloads)), m.Likes)
			}
			return tw.Flush()
		},
	}
	searchCmd.Flags().StringVar(&searchType, "type", "", "Model type: chat|code|embedding|vision")
	searchCmd.Flags().StringVar(&searchSize, "size", "", "Size class: small|medium|large")
	searchCmd.Flags().StringVar(&searchQuant, "quant", "", "Quantization, e.g. 4bit")
	searchCmd.Flags().StringVar(&searchArch, "arch", "", "Architecture family, e.g. qwen")
	searchCmd.Flags().StringVar(&searchExcl, "exclude", "", "Comma-separated architectures to exclude")
	searchCmd.Flags().StringVar(&searchTags, "tags", "", "Comma-separated required tags")
	searchCmd.Flags().Int64Var(&searchMaxMB, "max-mb", 0, "Maximum estimated artifact size in MB")
	searchCmd.Flags().IntVar(&searchMinDls, "min-downloads", 0, "Minimum download count")
	searchCmd.Flags().IntVar(&searchMinLike, "min-likes", 0, "Minimum like count")

	pullCmd := &cobra.Command{
		Use:     "pull <org/name>",
		Short:   "Download a model with live progress",
		Args:    cobra.ExactArgs(1),
		Example: "  hubctl pull mlx-community/Qwen2.5-0.5B-Instruct-4bit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pullWithProgress(cmd.Context(), client(), args[0], cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded to %s\n", path)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List fully downloaded models",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := client().Models(cmd.Context())
			if err != nil {
				return err
			}
			if len(models) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no models downloaded")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSIZE")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\n", m.ID, humanize.IBytes(uint64(m.EstimatedSizeBytes)))
			}
			return tw.Flush()
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <org/name>",
		Short: "Remove a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove partially downloaded model directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := client().Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean up")
				return nil
			}
			for _, id := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client().Status(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "state\t%s\n", st.State)
			fmt.Fprintf(tw, "runtime\t%s\n", orDash(st.Runtime))
			fmt.Fprintf(tw, "current model\t%s\n", orDash(st.CurrentModel))
			fmt.Fprintf(tw, "local models\t%d\n", st.LocalModels)
			fmt.Fprintf(tw, "active pulls\t%d\n", len(st.ActivePulls))
			fmt.Fprintf(tw, "uptime\t%ds\n", st.UptimeSeconds)
			if st.LastError != "" {
				fmt.Fprintf(tw, "last error\t%s\n", st.LastError)
			}
			return tw.Flush()
		},
	}

	verifyCmd := &cobra.Command{
		Use:     "verify <path> <sha256-hex>",
		Short:   "Verify a local file against an expected sha256 digest",
		Args:    cobra.ExactArgs(2),
		Example: "  hubctl verify ~/models/model.safetensors deadbeef...",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := download.VerifyFile(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("checksum mismatch for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	root.AddCommand(searchCmd, pullCmd, listCmd, rmCmd, cleanupCmd, statusCmd, verifyCmd)
	return root
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
