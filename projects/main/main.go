package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/dnssd-hub/components/core"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddops"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddzeroconf"
)

func main() {
	if path := os.Getenv("DNSSD_HUB_LOG_PATH"); path != "" {
		if err := core.SetLogFile(path); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to setup log file: ", err)
		}
	}

	cmd := &cobra.Command{
		Use:           "dnssd-hub",
		Short:         "DNS-SD discovery streams over multicast DNS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newBrowseCommand(), newRegisterCommand())

	if err := cmd.Execute(); err != nil {
		core.LogErr.Printf("main: %v\n", err)
		os.Exit(1)
	}
}

type browseOptions struct {
	iface   int
	service string
	domain  string
	resolve bool
	query   bool
	ipv4    bool
	ipv6    bool
}

func newBrowseCommand() *cobra.Command {
	var opts browseOptions

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse for service instances on the local network",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse(&opts)
		},
	}

	cmd.Flags().IntVar(&opts.iface, "iface", 0,
		"network interface index to browse on, 0 for all interfaces")
	cmd.Flags().StringVar(&opts.service, "service", "_http._tcp",
		"DNS-SD service type to browse for")
	cmd.Flags().StringVar(&opts.domain, "domain", "local.", "discovery domain")
	cmd.Flags().BoolVar(&opts.resolve, "resolve", false,
		"resolve discovered services to hostname, port and TXT records")
	cmd.Flags().BoolVar(&opts.query, "query", false,
		"query IPv4 and IPv6 addresses of resolved services, implies --resolve")
	cmd.Flags().BoolVar(&opts.ipv4, "ipv4", false,
		"query IPv4 addresses of resolved services, implies --resolve")
	cmd.Flags().BoolVar(&opts.ipv6, "ipv6", false,
		"query IPv6 addresses of resolved services, implies --resolve")

	return cmd
}

func runBrowse(opts *browseOptions) error {
	appContext, cancelFunc := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer cancelFunc()

	engine := &ddzeroconf.Engine{}

	stream, err := ddops.Browse(engine, ddops.BrowseParams{
		IfIndex: opts.iface,
		Service: opts.service,
		Domain:  opts.domain,
	})
	if err != nil {
		return err
	}

	if opts.resolve || opts.query || opts.ipv4 || opts.ipv6 {
		stream = ddops.Resolve(engine, stream)
	}

	switch {
	case opts.query:
		stream = ddops.QueryRecords(engine, stream)
	case opts.ipv4:
		stream = ddops.QueryIPv4Records(engine, stream)
	case opts.ipv6:
		stream = ddops.QueryIPv6Records(engine, stream)
	}

	return consume(appContext, stream)
}

type registerOptions struct {
	iface    int
	instance string
	service  string
	domain   string
	hostname string
	port     int
	txt      []string
}

func newRegisterCommand() *cobra.Command {
	var opts registerOptions

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Announce a service instance on the local network",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRegister(&opts)
		},
	}

	cmd.Flags().IntVar(&opts.iface, "iface", 0,
		"network interface index to announce on, 0 for all interfaces")
	cmd.Flags().StringVar(&opts.instance, "instance", "", "service instance name")
	cmd.Flags().StringVar(&opts.service, "service", "_http._tcp", "DNS-SD service type")
	cmd.Flags().StringVar(&opts.domain, "domain", "local.", "discovery domain")
	cmd.Flags().StringVar(&opts.hostname, "hostname", "",
		"host machine DNS name, empty for the local host")
	cmd.Flags().IntVar(&opts.port, "port", 0, "service port")
	cmd.Flags().StringArrayVar(&opts.txt, "txt", nil,
		"TXT record in key=value form, can be repeated")

	for _, flag := range []string{"instance", "port"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runRegister(opts *registerOptions) error {
	appContext, cancelFunc := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer cancelFunc()

	txt := make(map[string]string)

	for _, record := range opts.txt {
		key, value, _ := strings.Cut(record, "=")
		if key == "" {
			return fmt.Errorf("invalid TXT record: %q", record)
		}

		txt[key] = value
	}

	engine := &ddzeroconf.Engine{}

	stream, err := ddops.Register(engine, ddcore.ServiceRecord{
		IfIndex:  opts.iface,
		Instance: opts.instance,
		Service:  opts.service,
		Domain:   opts.domain,
		Hostname: opts.hostname,
		Port:     opts.port,
		Txt:      txt,
	})
	if err != nil {
		return err
	}

	return consume(appContext, stream)
}

func consume(ctx context.Context, stream *ddstream.Stream) error {
	closer := &core.FanoutCloser{}
	defer func() {
		if err := closer.Close(); err != nil {
			core.LogErr.Printf("main: failed to close resources: %v\n", err)
		}
	}()

	closer.Add("record-stream", core.FuncCloser(stream.Stop))

	for {
		select {
		case rec, ok := <-stream.Records():
			if !ok {
				return stream.Err()
			}

			printRecord(rec)

		case <-ctx.Done():
			return nil
		}
	}
}

func printRecord(rec ddcore.ServiceRecord) {
	addrs := make([]string, 0, len(rec.Addrs))
	for _, addr := range rec.Addrs {
		addrs = append(addrs, addr.String())
	}

	txt := make([]string, 0, len(rec.Txt))
	for key, value := range rec.Txt {
		txt = append(txt, key+"="+value)
	}

	core.LogInf.Printf("record: event=%s if=%d instance=%q service=%s domain=%s"+
		" hostname=%s port=%d txt=[%s] addrs=[%s]\n",
		rec.Event, rec.IfIndex, rec.Instance, rec.Service, rec.Domain,
		rec.Hostname, rec.Port, strings.Join(txt, " "), strings.Join(addrs, " "))
}
