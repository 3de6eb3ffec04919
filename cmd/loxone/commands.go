package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goslovakia/go-loxone/internal/config"
	"github.com/goslovakia/go-loxone/internal/mqtt"
	"github.com/goslovakia/go-loxone/pkg/loxone"
)

var (
	serial    string
	username  string
	password  string
	endpoint  string
	cacheFile string
	timeout   time.Duration
	verbose   bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serial, "serial", "", "Serial number of the Miniserver (LOXONE_SERIAL)")
	flags.StringVar(&username, "user", "", "Miniserver user (LOXONE_USERNAME)")
	flags.StringVar(&password, "password", "", "Miniserver password (LOXONE_PASSWORD)")
	flags.StringVar(&endpoint, "endpoint", "", "IP resolver endpoint (LOXONE_ENDPOINT)")
	flags.StringVar(&cacheFile, "cache-file", "", "File caching resolved IPs (LOXONE_CACHE_FILE)")
	flags.DurationVar(&timeout, "timeout", 0, "Request timeout (LOXONE_TIMEOUT_SEC)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	switchCmd.AddCommand(switchGetCmd, switchOnCmd, switchOffCmd)
	valueCmd.AddCommand(valueGetCmd, valueSetCmd)

	rootCmd.AddCommand(ipCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(controlsCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(pulseCmd)
	rootCmd.AddCommand(radioCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(publishCmd)
}

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Print the resolved Miniserver address",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)
		fmt.Println(client.MiniserverIP())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Dump the structure file (LoxAPP3.json)",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		info, err := client.MiniserverInfo(cmd.Context())
		if err != nil {
			fail("Error reading structure file: %v", err)
		}
		if info == nil {
			fail("Structure file unavailable.")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			fail("Error encoding structure file: %v", err)
		}
	},
}

var controlsCmd = &cobra.Command{
	Use:   "controls",
	Short: "List the controls of the Miniserver",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		s, err := client.Structure(cmd.Context())
		if err != nil {
			fail("Error reading structure file: %v", err)
		}

		fmt.Printf("%s (%s), last modified %s\n\n", s.MsInfo.MsName, s.MsInfo.SerialNr, s.LastModified)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tROOM\tCATEGORY\tUUID")
		for _, c := range s.SortedControls() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, s.RoomName(c.Room), s.CategoryName(c.Cat), c.UUIDAction)
		}
		w.Flush()
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Read or change a switch",
}

var switchGetCmd = &cobra.Command{
	Use:   "get [uuid]",
	Short: "Show whether a switch is on",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		on, err := client.SwitchState(cmd.Context(), args[0])
		if err != nil {
			fail("Error reading switch: %v", err)
		}
		fmt.Println(onOff(on))
	},
}

var switchOnCmd = &cobra.Command{
	Use:   "on [uuid]",
	Short: "Turn a switch on",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setSwitch(cmd, args[0], true)
	},
}

var switchOffCmd = &cobra.Command{
	Use:   "off [uuid]",
	Short: "Turn a switch off",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setSwitch(cmd, args[0], false)
	},
}

func setSwitch(cmd *cobra.Command, uuid string, on bool) {
	client, _ := getClient(cmd)

	state, err := client.SetSwitchState(cmd.Context(), uuid, on)
	if err != nil {
		fail("Error changing switch: %v", err)
	}
	fmt.Printf("Switch is %s.\n", onOff(state))
	if state != on {
		os.Exit(2)
	}
}

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Read or set a control value",
}

var valueGetCmd = &cobra.Command{
	Use:   "get [uuid]",
	Short: "Print the value of a control",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		v, err := client.ControlValue(cmd.Context(), args[0])
		if err != nil {
			fail("Error reading control value: %v", err)
		}
		fmt.Println(v)
	},
}

var valueSetCmd = &cobra.Command{
	Use:   "set [uuid] [value]",
	Short: "Set the value of a control",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		ok, err := client.SetControlValue(cmd.Context(), args[0], args[1])
		if err != nil {
			fail("Error setting control value: %v", err)
		}
		if !ok {
			fail("Miniserver did not confirm value %q.", args[1])
		}
		fmt.Println("Value set successfully.")
	},
}

var pulseCmd = &cobra.Command{
	Use:   "pulse [uuid]",
	Short: "Activate a push button",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		ok, err := client.ActivatePushButton(cmd.Context(), args[0])
		if err != nil {
			fail("Error activating push button: %v", err)
		}
		if !ok {
			fail("Miniserver did not confirm the pulse.")
		}
		fmt.Println("Pulse sent successfully.")
	},
}

var radioCmd = &cobra.Command{
	Use:   "radio [uuid] [value]",
	Short: "Select an output of a radio button control",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		ok, err := client.SetRadioValue(cmd.Context(), args[0], args[1])
		if err != nil {
			fail("Error setting radio value: %v", err)
		}
		if !ok {
			fail("Miniserver did not confirm radio value %q.", args[1])
		}
		fmt.Println("Radio value set successfully.")
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the Miniserver",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)

		if !client.Reboot(cmd.Context()) {
			fail("Reboot request was not accepted.")
		}
		fmt.Println("Reboot requested.")
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover Miniservers on the local network",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Discovering Miniservers...")
		results, err := loxone.Discover(cmd.Context())
		if err != nil {
			fail("Error discovering: %v", err)
		}

		if len(results) == 0 {
			fmt.Println("No Miniservers found.")
			return
		}

		for _, res := range results {
			fmt.Printf("Found Miniserver %s (firmware %s) at: %s\n", res.Serial, res.Version, res.IP)
		}
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish [uuid...]",
	Short: "Publish control values to an MQTT broker",
	Long: `Reads the value of every given control and publishes it, retained, to
<root>/<serial>/<uuid>/value. With --interval the values are published
repeatedly until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := getClient(cmd)
		ctx := cmd.Context()

		if broker, _ := cmd.Flags().GetString("broker"); broker != "" {
			cfg.MQTT.Broker = broker
		}
		if cfg.MQTT.Broker == "" {
			fail("MQTT broker required. Use --broker or %s.", config.EnvMQTTBroker)
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		mqttClient := mqtt.NewClient(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicRoot, newLogger())
		if err := mqttClient.Connect(); err != nil {
			fail("Error connecting to broker %s: %v", cfg.MQTT.Broker, err)
		}
		defer mqttClient.Disconnect()

		for {
			for _, uuid := range args {
				topic := fmt.Sprintf("%s/%s/value", cfg.Serial, uuid)
				v, err := client.ControlValue(ctx, uuid)
				if err != nil {
					fmt.Printf("Error reading %s: %v\n", uuid, err)
					continue
				}
				if err := mqttClient.Publish(topic, v, true); err != nil {
					fmt.Printf("Error publishing %s: %v\n", uuid, err)
					continue
				}
				fmt.Printf("%s = %s\n", mqttClient.Topic(topic), v)
			}

			if interval <= 0 {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	},
}

func init() {
	publishCmd.Flags().String("broker", "", "MQTT broker URL (LOXONE_MQTT_BROKER)")
	publishCmd.Flags().Duration("interval", 0, "Publish repeatedly at this interval")
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fail("Invalid configuration: %v", err)
	}

	flags := cmd.Root().PersistentFlags()
	if flags.Changed("serial") {
		cfg.Serial = serial
	}
	if flags.Changed("user") {
		cfg.Username = username
	}
	if flags.Changed("password") {
		cfg.Password = password
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if flags.Changed("cache-file") {
		cfg.CacheFile = cacheFile
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSec = max(1, int(timeout.Round(time.Second)/time.Second))
	}
	if cfg.CacheFile == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.CacheFile = filepath.Join(dir, "loxone", "ip-cache.json")
		}
	}

	if err := cfg.Validate(); err != nil {
		fail("Invalid configuration: %v", err)
	}
	return cfg
}

func getClient(cmd *cobra.Command) (*loxone.Client, config.Config) {
	cfg := loadConfig(cmd)
	if cfg.Serial == "" {
		fail("Serial number required. Use --serial or %s.", config.EnvSerial)
	}

	opts := cfg.Options()
	if logger := newLogger(); logger != nil {
		opts = append(opts, loxone.WithLogger(logger))
	}

	client, err := loxone.NewClient(cmd.Context(), cfg.Serial, cfg.Username, cfg.Password, opts...)
	if err != nil {
		fail("Error connecting to Miniserver %s: %v", cfg.Serial, err)
	}
	return client, cfg
}

func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func fail(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
