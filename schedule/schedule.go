// Package schedule owns the persisted scheduling configuration and the
// recurring jobs that trigger market scrapers and comprehensive campaigns.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/nhuertas/supermercat/campaign"
	"github.com/nhuertas/supermercat/markets"
	"github.com/robfig/cron/v3"
)

// pollInterval is how often the main loop checks for due jobs.
const pollInterval = 60 * time.Second

// Comprehensive run composition: up to this many city-aware and
// single-location markets, and the flat single-location cap.
const (
	comprehensiveCityMarkets   = 3
	comprehensiveSingleMarkets = 4
	comprehensiveSingleCap     = 40
	defaultCityCap             = 30
	defaultSingleCap           = 50
	comprehensiveRunKey        = "comprehensive"
)

// Dispatcher invokes a single market scraper and absorbs its failures.
type Dispatcher interface {
	Run(ctx context.Context, marketName string, cities []string, maxProducts int) int
}

// CampaignRunner runs a full multi-city, multi-market campaign.
type CampaignRunner interface {
	RunComprehensive(ctx context.Context, cities, markets []string, maxProductsPerCity, maxProductsPerMarket int) *campaign.Result
}

// job is one registered timer. The next fire time is recomputed from the
// cron schedule after every run.
type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	next     time.Time
	run      func(ctx context.Context)
}

// Scheduler registers time-triggered jobs from the persisted configuration
// and runs them in a single-threaded cooperative loop: one job runs to
// completion before the next due job is considered.
type Scheduler struct {
	config     Config
	configPath string
	registry   *markets.Registry
	dispatcher Dispatcher
	campaigns  CampaignRunner

	jobs []*job

	// lastRuns is observational only: shown by Status, never read back
	// into scheduling decisions, lost on restart.
	lastRuns map[string]time.Time

	now func() time.Time
}

// New creates a scheduler, loading the persisted configuration from
// configPath (built-in defaults when the file is absent).
func New(configPath string, registry *markets.Registry, dispatcher Dispatcher, campaigns CampaignRunner) (*Scheduler, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		config:     config,
		configPath: configPath,
		registry:   registry,
		dispatcher: dispatcher,
		campaigns:  campaigns,
		lastRuns:   make(map[string]time.Time),
		now:        time.Now,
	}, nil
}

// Config returns the loaded configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

// SaveConfig persists the current configuration.
func (s *Scheduler) SaveConfig() error {
	return s.config.Save(s.configPath)
}

// Setup clears any previously registered jobs and registers one recurring
// job per known market schedule, plus the weekly comprehensive run when
// enabled. Market names not present in the registry are skipped with a
// warning.
func (s *Scheduler) Setup() error {
	log.Printf("INFO: Setting up multi-city multi-market schedules")
	s.jobs = nil

	for _, name := range sortedMarketNames(s.config.MarketSchedules) {
		marketSchedule := s.config.MarketSchedules[name]

		descriptor, ok := s.registry.Get(name)
		if !ok {
			log.Printf("WARN: Unknown market in schedule config: %s", name)
			continue
		}

		spec, err := cronSpec(marketSchedule.Frequency, marketSchedule.Day, marketSchedule.Time)
		if err != nil {
			log.Printf("WARN: Skipping %s: %v", name, err)
			continue
		}

		marketName := name
		var handler func(ctx context.Context)
		if descriptor.CitySupport {
			handler = func(ctx context.Context) { s.runCityMarket(ctx, marketName) }
		} else {
			handler = func(ctx context.Context) { s.runSingleMarket(ctx, marketName) }
		}

		if err := s.addJob(marketName, spec, handler); err != nil {
			log.Printf("WARN: Skipping %s: %v", name, err)
		}
	}

	if s.config.ComprehensiveRuns.Enabled {
		comprehensive := s.config.ComprehensiveRuns
		spec, err := cronSpec("weekly", comprehensive.Day, comprehensive.Time)
		if err != nil {
			log.Printf("WARN: Skipping comprehensive run: %v", err)
		} else if err := s.addJob(comprehensiveRunKey, spec, s.runComprehensive); err != nil {
			log.Printf("WARN: Skipping comprehensive run: %v", err)
		}
	}

	log.Printf("INFO: Scheduled %d jobs", len(s.jobs))
	return nil
}

func (s *Scheduler) addJob(name, spec string, run func(ctx context.Context)) error {
	parsed, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	s.jobs = append(s.jobs, &job{
		name:     name,
		spec:     spec,
		schedule: parsed,
		next:     parsed.Next(s.now()),
		run:      run,
	})
	return nil
}

// Run executes the main loop until the context is cancelled. Jobs run
// synchronously in this goroutine; a hanging scraper stalls the whole
// loop, there is no per-job timeout.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler loop failed: %v", r)
			log.Printf("ERROR: %v", err)
		}
	}()

	if err := s.Setup(); err != nil {
		return err
	}

	log.Printf("INFO: Scheduler started, checking jobs every %v", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("INFO: Scheduler stopped")
			return nil
		case <-ticker.C:
			s.runPending(ctx)
		}
	}
}

// runPending fires every due job, one at a time, and advances its next
// fire time.
func (s *Scheduler) runPending(ctx context.Context) {
	now := s.now()
	for _, j := range s.jobs {
		if now.Before(j.next) {
			continue
		}
		j.run(ctx)
		j.next = j.schedule.Next(s.now())
	}
}

// runCityMarket is the handler for markets whose scraper supports per-city
// scoping. It refuses markets that do not, instead of falling back to the
// wrong calling convention.
func (s *Scheduler) runCityMarket(ctx context.Context, marketName string) {
	descriptor, ok := s.registry.Get(marketName)
	if !ok {
		log.Printf("WARN: Unknown market: %s", marketName)
		return
	}
	if !descriptor.CitySupport {
		log.Printf("WARN: %s doesn't support cities, skipping city rotation", marketName)
		return
	}

	cities := s.config.CitiesForRotation(rotationDay(s.now()))

	cap := s.config.MarketSchedules[marketName].MaxProductsPerCity
	if cap == 0 {
		cap = defaultCityCap
	}

	log.Printf("INFO: Running %s for cities: %s", marketName, strings.Join(cities, ", "))
	count := s.dispatcher.Run(ctx, marketName, cities, cap)

	s.lastRuns[marketName] = s.now()
	log.Printf("INFO: %s completed: %d products", marketName, count)
}

// runSingleMarket is the handler for single-location markets. It refuses
// city-aware markets symmetrically to runCityMarket.
func (s *Scheduler) runSingleMarket(ctx context.Context, marketName string) {
	descriptor, ok := s.registry.Get(marketName)
	if !ok {
		log.Printf("WARN: Unknown market: %s", marketName)
		return
	}
	if descriptor.CitySupport {
		log.Printf("WARN: %s supports cities, use the city rotation handler instead", marketName)
		return
	}

	cap := s.config.MarketSchedules[marketName].MaxProducts
	if cap == 0 {
		cap = defaultSingleCap
	}

	log.Printf("INFO: Running %s (single location)", marketName)
	count := s.dispatcher.Run(ctx, marketName, nil, cap)

	s.lastRuns[marketName] = s.now()
	log.Printf("INFO: %s completed: %d products", marketName, count)
}

// runComprehensive runs the full campaign over today's rotation cities and
// a fixed mix of markets.
func (s *Scheduler) runComprehensive(ctx context.Context) {
	comprehensive := s.config.ComprehensiveRuns
	if !comprehensive.Enabled {
		log.Printf("INFO: Comprehensive weekly runs disabled")
		return
	}

	log.Printf("INFO: Starting comprehensive weekly scraping")

	cities := s.config.CitiesForRotation(rotationDay(s.now()))
	if comprehensive.MaxCities > 0 && len(cities) > comprehensive.MaxCities {
		cities = cities[:comprehensive.MaxCities]
	}

	cityMarkets, singleMarkets := s.registry.Partition(s.registry.Names())
	if len(cityMarkets) > comprehensiveCityMarkets {
		cityMarkets = cityMarkets[:comprehensiveCityMarkets]
	}
	if len(singleMarkets) > comprehensiveSingleMarkets {
		singleMarkets = singleMarkets[:comprehensiveSingleMarkets]
	}
	allMarkets := append(append([]string{}, cityMarkets...), singleMarkets...)

	perCity := comprehensive.MaxProductsPerCity
	if perCity == 0 {
		perCity = 25
	}

	result := s.campaigns.RunComprehensive(ctx, cities, allMarkets, perCity, comprehensiveSingleCap)

	s.lastRuns[comprehensiveRunKey] = s.now()
	log.Printf("INFO: Comprehensive weekly scraping completed: %d products", result.TotalProducts)
}

// Status writes a read-only report of the schedule configuration,
// registered jobs and last run times.
func (s *Scheduler) Status(w io.Writer) {
	fmt.Fprintln(w, "Multi-City Multi-Market Schedule Status")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	rotation := s.config.CityRotation
	enabled := "Disabled"
	if rotation.Enabled {
		enabled = "Enabled"
	}
	fmt.Fprintf(w, "City rotation: %s\n", enabled)
	fmt.Fprintf(w, "Rotation days: %d\n", rotation.RotationDays)

	fmt.Fprintln(w, "\nMarket schedules:")
	for _, name := range sortedMarketNames(s.config.MarketSchedules) {
		marketSchedule := s.config.MarketSchedules[name]
		kind := "single-location"
		if descriptor, ok := s.registry.Get(name); ok && descriptor.CitySupport {
			kind = "city-supporting"
		}
		when := marketSchedule.Frequency
		if marketSchedule.Frequency == "weekly" {
			when = fmt.Sprintf("weekly on %s", weeklyDayOrDefault(marketSchedule.Day))
		}
		fmt.Fprintf(w, "  %-12s %s at %s (%s)\n", name+":", when, marketSchedule.Time, kind)
	}

	comprehensive := s.config.ComprehensiveRuns
	if comprehensive.Enabled {
		fmt.Fprintf(w, "\nComprehensive weekly: %s at %s\n", comprehensive.Day, comprehensive.Time)
	}

	fmt.Fprintf(w, "\nTotal scheduled jobs: %d\n", len(s.jobs))

	if len(s.lastRuns) > 0 {
		fmt.Fprintln(w, "\nLast run times:")
		names := make([]string, 0, len(s.lastRuns))
		for name := range s.lastRuns {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, s.lastRuns[name].Format("2006-01-02 15:04:05"))
		}
	}
}

// JobCount returns the number of registered jobs.
func (s *Scheduler) JobCount() int {
	return len(s.jobs)
}

// cronSpec builds a standard cron spec from a schedule entry.
func cronSpec(frequency, day, timeOfDay string) (string, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}

	switch frequency {
	case "daily":
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case "weekly":
		dow, err := dayOfWeek(weeklyDayOrDefault(day))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * %d", minute, hour, dow), nil
	default:
		return "", fmt.Errorf("unsupported frequency %q", frequency)
	}
}

func parseTimeOfDay(value string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	return hour, minute, nil
}

func weeklyDayOrDefault(day string) string {
	if day == "" {
		return "monday"
	}
	return day
}

// dayOfWeek maps a day name to its cron day-of-week number. All seven
// days are supported.
func dayOfWeek(day string) (int, error) {
	switch strings.ToLower(day) {
	case "sunday":
		return 0, nil
	case "monday":
		return 1, nil
	case "tuesday":
		return 2, nil
	case "wednesday":
		return 3, nil
	case "thursday":
		return 4, nil
	case "friday":
		return 5, nil
	case "saturday":
		return 6, nil
	default:
		return 0, fmt.Errorf("unknown day of week %q", day)
	}
}

// rotationDay converts a wall-clock time to the rotation's day index
// (0=Monday .. 6=Sunday).
func rotationDay(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func sortedMarketNames(schedules map[string]MarketSchedule) []string {
	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
