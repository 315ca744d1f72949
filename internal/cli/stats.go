package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/focusflow/internal/application"
)

var (
	statsEmail string
	statsDays  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print productivity analytics for an account",
	Long: `Print the analytics overview for one account as JSON.

Examples:
  focusflow stats --email ada@example.com
  focusflow stats --email ada@example.com --days 14`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsEmail, "email", "", "account email address (required)")
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "number of days in the daily breakdown")
	_ = statsCmd.MarkFlagRequired("email")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return writeStats(ctx, cmd.OutOrStdout(), app, statsEmail, statsDays)
}

type statsReport struct {
	Email    string                   `json:"email"`
	Today    todayReport              `json:"today"`
	Daily    []dailyReport            `json:"daily"`
	Insights insightsReport           `json:"insights"`
	Types    []sessionTypeReportEntry `json:"sessionTypes"`
}

type todayReport struct {
	CompletedSessions int `json:"completedSessions"`
	TotalFocusTime    int `json:"totalFocusTime"`
	Interruptions     int `json:"interruptions"`
	SuccessRate       int `json:"successRate"`
}

type dailyReport struct {
	Date              string `json:"date"`
	TotalFocusTime    int    `json:"totalFocusTime"`
	CompletedSessions int    `json:"completedSessions"`
	SuccessRate       int    `json:"successRate"`
}

type insightsReport struct {
	PeakProductivityHour    int      `json:"peakProductivityHour"`
	AverageDailyFocusTime   int      `json:"averageDailyFocusTime"`
	CurrentStreak           int      `json:"currentStreak"`
	ImprovementFromLastWeek int      `json:"improvementFromLastWeek"`
	TotalFocusTimeThisWeek  int      `json:"totalFocusTimeThisWeek"`
	MostProductiveDay       string   `json:"mostProductiveDay"`
	Recommendations         []string `json:"recommendations"`
}

type sessionTypeReportEntry struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

func writeStats(ctx context.Context, w io.Writer, app *App, email string, days int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := app.Storage.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find account %s: %w", email, mapStoreError(err, nil))
	}

	today, err := app.Sessions.GetTodayStats(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to compute today's stats: %w", err)
	}
	daily, err := app.Analytics.GetDailyStats(ctx, user.ID, days)
	if err != nil {
		return fmt.Errorf("failed to compute daily stats: %w", err)
	}
	insights, err := app.Analytics.GetInsights(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to compute insights: %w", err)
	}
	types, err := app.Analytics.GetSessionTypeDistribution(ctx, user.ID, 30)
	if err != nil {
		return fmt.Errorf("failed to compute session types: %w", err)
	}

	report := statsReport{
		Email: user.Email,
		Today: todayReport{
			CompletedSessions: today.CompletedSessions,
			TotalFocusTime:    today.TotalFocusTime,
			Interruptions:     today.Interruptions,
			SuccessRate:       today.SuccessRate,
		},
		Daily:    toDailyReports(daily),
		Insights: toInsightsReport(insights),
		Types:    toSessionTypeReports(types),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func toDailyReports(stats []application.DailyStats) []dailyReport {
	reports := make([]dailyReport, 0, len(stats))
	for _, day := range stats {
		reports = append(reports, dailyReport{
			Date:              day.Date,
			TotalFocusTime:    day.TotalFocusTime,
			CompletedSessions: day.CompletedSessions,
			SuccessRate:       day.SuccessRate,
		})
	}
	return reports
}

func toInsightsReport(insights application.AnalyticsInsights) insightsReport {
	recommendations := insights.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return insightsReport{
		PeakProductivityHour:    insights.PeakProductivityHour,
		AverageDailyFocusTime:   insights.AverageDailyFocusTime,
		CurrentStreak:           insights.CurrentStreak,
		ImprovementFromLastWeek: insights.ImprovementFromLastWeek,
		TotalFocusTimeThisWeek:  insights.TotalFocusTimeThisWeek,
		MostProductiveDay:       insights.MostProductiveDay,
		Recommendations:         recommendations,
	}
}

func toSessionTypeReports(types []application.SessionTypeDistribution) []sessionTypeReportEntry {
	reports := make([]sessionTypeReportEntry, 0, len(types))
	for _, entry := range types {
		reports = append(reports, sessionTypeReportEntry{
			Type:       entry.Type,
			Count:      entry.Count,
			Percentage: entry.Percentage,
		})
	}
	return reports
}
