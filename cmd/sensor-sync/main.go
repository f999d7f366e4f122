package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ltumat/AirQualityPrediction/internal/aqicn"
	"github.com/ltumat/AirQualityPrediction/internal/common"
	"github.com/ltumat/AirQualityPrediction/internal/config"
	"github.com/ltumat/AirQualityPrediction/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "sensor-sync",
	Short: "Sync sensor coordinates from AQICN into the YAML registry",
	Long: `sensor-sync refreshes the latitude/longitude of every sensor in a YAML
registry from the api.waqi.info feeds, rewriting only those lines and leaving
the rest of the document byte-for-byte untouched.`,
	SilenceUsage: true,
	RunE:         runSync,
}

var (
	flagFile    string
	flagToken   string
	flagDryRun  bool
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFile, "file", "", "path to the sensor registry to update (default from SENSORS_FILE)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "AQICN API token (default from AQI_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log resolution progress to stderr")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve coordinates without touching the registry")
}

func main() {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	file := common.FirstNonEmpty(flagFile, cfg.SensorsFile)
	token := common.FirstNonEmpty(flagToken, cfg.AqicnToken)

	logger := log.New(io.Discard, "", 0)
	if flagVerbose {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}

	_, service, patcher := buildService(cfg, token, logger)

	if flagDryRun {
		sensors, err := service.Plan(cmd.Context(), file)
		if err != nil {
			return err
		}
		for _, sensor := range sensors {
			cmd.Printf("%s: latitude %s, longitude %s\n",
				sensor.Name, patcher.Format(*sensor.Latitude), patcher.Format(*sensor.Longitude))
		}
		cmd.Printf("Dry run: would update coordinates for %d sensors in %s\n", len(sensors), file)
		return nil
	}

	sensors, err := service.Sync(cmd.Context(), file)
	if err != nil {
		return err
	}

	cmd.Printf("Updated coordinates for %d sensors in %s\n", len(sensors), file)
	return nil
}

// buildService assembles the sync pipeline from configuration and flag
// overrides.
func buildService(cfg *config.AppConfig, token string, logger *log.Logger) (*registry.Store, *registry.Service, *registry.Patcher) {
	registryStore := registry.NewStore(registry.DefaultStoreOptions())
	patcher := registry.NewPatcher(registry.DefaultPatchOptions())
	client := aqicn.NewClient(token, cfg.HTTPTimeout, logger)
	service := registry.NewService(registryStore, client, patcher, logger)
	return registryStore, service, patcher
}
