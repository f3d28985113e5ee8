package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const topRatedLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []models.Listing) *models.InsightReport {
	report := &models.InsightReport{}

	if len(listings) == 0 {
		return report
	}

	report.TotalPlaces = len(listings)

	var rated []*models.RatedPlace
	var ratingSum float64

	for i := range listings {
		l := &listings[i]
		if l.Phone != "" {
			report.WithPhone++
		}
		if l.Hours != "" {
			report.WithHours++
		}
		if len(l.SocialLinks) > 0 {
			report.WithSocial++
		}

		count := parseReviewCount(l.Reviews.Count)
		report.TotalReviews += count

		rating, ok := parseRating(l.Reviews.Average)
		if !ok {
			continue
		}
		ratingSum += rating
		rated = append(rated, &models.RatedPlace{Listing: l, Rating: rating, ReviewCount: count})
	}

	report.RatedPlaces = len(rated)
	if len(rated) > 0 {
		report.AverageRating = round2(ratingSum / float64(len(rated)))
	}

	// Top 5 by rating, more reviews wins a tie
	sort.SliceStable(rated, func(i, j int) bool {
		if rated[i].Rating == rated[j].Rating {
			return rated[i].ReviewCount > rated[j].ReviewCount
		}
		return rated[i].Rating > rated[j].Rating
	})
	if len(rated) > topRatedLimit {
		report.TopRated = rated[:topRatedLimit]
	} else {
		report.TopRated = rated
	}

	s.logger.Debug("[insights] %d places, %d rated", report.TotalPlaces, report.RatedPlaces)
	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	s.Fprint(os.Stdout, r)
}

func (s *InsightService) Fprint(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📍 MAP SCRAPE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Places added this run : \033[1m%d\033[0m\n", r.TotalPlaces)
	fmt.Fprintf(w, "  With phone number     : \033[1m%d\033[0m\n", r.WithPhone)
	fmt.Fprintf(w, "  With opening hours    : \033[1m%d\033[0m\n", r.WithHours)
	fmt.Fprintf(w, "  With social links     : \033[1m%d\033[0m\n", r.WithSocial)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Reviews\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.RatedPlaces > 0 {
		fmt.Fprintf(w, "  Rated places   : \033[1;32m%d\033[0m\n", r.RatedPlaces)
		fmt.Fprintf(w, "  Average rating : \033[1;32m%.2f ★\033[0m\n", r.AverageRating)
		fmt.Fprintf(w, "  Total reviews  : \033[1;32m%d\033[0m\n", r.TotalReviews)
	} else {
		fmt.Fprintf(w, "  No rating data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d Highest Rated Places\033[0m\n", topRatedLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated places found\n")
	} else {
		for i, p := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m (%d)\n",
				i+1, truncate(p.Listing.Name, 38), p.Rating, p.ReviewCount)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
