package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gregLibert/desfire-audit/internal/config"
	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/enum"
	"github.com/gregLibert/desfire-audit/pkg/originality"
	"github.com/gregLibert/desfire-audit/pkg/pcsc"
)

const usage = `usage: desfire-audit [flags] [info|enum|all]

  info   card version, originality signature, PICC key settings, free memory
  enum   applications, key settings, key versions and file settings
  all    info followed by enum (default)

flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}

	configPath := flag.String("config", "", "YAML configuration file")
	readerIndex := flag.Int("reader", -1, "reader index (overrides config)")
	logLevel := flag.String("log", "", "log level: trace, debug, info, warn, error, disabled")
	trace := flag.Bool("trace", false, "log every APDU exchanged with the card")
	isoSelect := flag.Bool("iso", false, "ISO-select every application by DF name")
	noProbe := flag.Bool("no-auth-probe", false, "skip the authentication probe")
	listReaders := flag.Bool("list", false, "list PC/SC readers and exit")
	flag.Parse()

	command := "all"
	switch flag.NArg() {
	case 0:
	case 1:
		command = flag.Arg(0)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if command != "info" && command != "enum" && command != "all" {
		flag.Usage()
		os.Exit(2)
	}

	if *listReaders {
		printReaders()
		return
	}

	// --- 1. Configuration ---
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		cfg = loaded
	}
	if *readerIndex >= 0 {
		cfg.ReaderIndex = *readerIndex
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.APDUTrace = cfg.APDUTrace || *trace
	cfg.ISOSelectDFNames = cfg.ISOSelectDFNames || *isoSelect
	if *noProbe {
		cfg.ProbeAuth = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Fatalf("Invalid originality keys: %v", err)
	}
	verifier := originality.NewVerifier(catalog)
	for _, label := range verifier.Skipped() {
		for _, k := range cfg.OriginalityKeys {
			if k.Label == label {
				log.Printf("Warning: originality key %q is not a valid P-224 point, skipped", label)
			}
		}
	}

	// --- 2. Hardware Setup ---
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	reader, err := pcsc.Connect(cfg.ReaderIndex)
	if err != nil {
		log.Fatalf("Error connecting to reader: %v", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("Warning: Failed to close reader: %v", err)
		}
	}()
	fmt.Printf(">> Using reader [%d]: %s\n", reader.Index, reader.Name)

	// --- 3. Logic Setup ---
	loggerFactory := cfg.LoggerFactory()
	client := desfire.NewClient(desfire.Config{
		Transport:     reader,
		Capacity:      cfg.ResponseCapacity,
		LoggerFactory: loggerFactory,
	})
	session := desfire.NewSession(client)
	opts := enum.Options{
		ProbeAuth:     cfg.ProbeAuth,
		SelectDFNames: cfg.ISOSelectDFNames,
		LoggerFactory: loggerFactory,
	}

	// --- 4. Execution Flow ---
	if err := run(command, session, verifier, opts); err != nil {
		log.Printf("Error: %v", err)
		exitCode = 1
	}
}

func run(command string, session *desfire.Session, verifier *originality.Verifier, opts enum.Options) error {
	if command == "info" || command == "all" {
		info, err := enum.Inspect(session, verifier, opts)
		if err != nil {
			return fmt.Errorf("card information: %w", err)
		}
		fmt.Println(info.Describe())
	}

	if command == "enum" || command == "all" {
		report, err := enum.Enumerate(session, opts)
		if err != nil {
			return fmt.Errorf("enumeration: %w", err)
		}
		fmt.Println(report.Describe())
	}

	return nil
}

func printReaders() {
	readers, err := pcsc.ListReaders()
	if err != nil {
		log.Fatalf("Error listing readers: %v", err)
	}
	if len(readers) == 0 {
		fmt.Println("No smart card reader found.")
		return
	}
	for i, r := range readers {
		fmt.Printf("[%d] %s\n", i, r)
	}
}
