package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pokerhand/internal/classifier"
	"pokerhand/internal/config"
	"pokerhand/internal/redis"
	"pokerhand/internal/storage"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify CARD CARD CARD CARD CARD",
		Short:   "Classify five cards, e.g. handctl classify 10S JS QS KS AS",
		Args:    cobra.ExactArgs(5),
		Example: "  handctl classify 2h 3h 4h 5h ah",
		RunE: func(cmd *cobra.Command, args []string) error {
			hand, err := parseHand(args)
			if err != nil {
				return err
			}

			res, err := classifier.NewPoker().Classify(cmd.Context(), hand)
			if err != nil {
				return err
			}

			pterm.Info.Println(prettyHand(hand))
			pterm.Success.Println(res.HandType)
			if res.Description != "" {
				pterm.Println(pterm.Gray(res.Description))
			}
			return nil
		},
	}
}

func newHandsCmd(configPath *string) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "hands",
		Short: "List stored hands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			repo, err := storage.NewPostgres(cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("connect to storage: %w", err)
			}
			defer repo.Close()

			records, err := repo.FindAll(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"When", "Hand", "Hand Type"}}
			for _, r := range records {
				data = append(data, []string{r.CreatedAt.Format("2006-01-02 15:04"), prettyHand(r.Hand), r.HandType})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum hands to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "hands to skip")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how often each hand type was dealt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			rdb, err := redis.New(cfg.Redis.Addr, cfg.Redis.Prefix)
			if err != nil {
				return fmt.Errorf("connect to redis: %w", err)
			}
			defer rdb.Close()

			return printStats(cmd.Context(), rdb)
		},
	}
}

type statsSource interface {
	HandTypeCounts(ctx context.Context) (map[string]int64, error)
	Total(ctx context.Context) (int64, error)
}

func printStats(ctx context.Context, src statsSource) error {
	counts, err := src.HandTypeCounts(ctx)
	if err != nil {
		return err
	}
	total, err := src.Total(ctx)
	if err != nil {
		return err
	}

	types := make([]classifier.HandType, 0, len(counts))
	for ht := range counts {
		types = append(types, classifier.HandType(ht))
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Strength() > types[j].Strength() })

	data := pterm.TableData{{"Hand Type", "Count"}}
	for _, ht := range types {
		data = append(data, []string{string(ht), strconv.FormatInt(counts[string(ht)], 10)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d hands classified", total)
	return nil
}
