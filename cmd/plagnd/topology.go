package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/plagn-go/plagn/internal/adapter"
	"github.com/plagn-go/plagn/internal/config"
	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/modbus"
	"github.com/plagn-go/plagn/internal/mqtt"
	"github.com/plagn-go/plagn/internal/record"
	"github.com/plagn-go/plagn/internal/transport"
	"github.com/plagn-go/plagn/internal/translator"
)

func openConfig(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plagnd: opening %s: %w", path, err)
	}
	return f, nil
}

// buildTopology reads configPath and constructs every Adapter it names,
// then wires each section's `target[N]` and `target[N].rewrite[M].key`/
// `.expr` keys into Translators
// attached to that Adapter's Distributor.
func buildTopology(configPath string, log *logging.Logger) ([]adapter.Adapter, error) {
	f, err := openConfig(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := config.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("plagnd: parsing %s: %w", configPath, err)
	}

	byName := make(map[string]adapter.Adapter)
	var plagID uint64
	for _, name := range c.Sections() {
		plagID++
		kind, _ := c.Get(name, `type`)
		a, err := buildAdapter(c, name, kind, plagID, log)
		if err != nil {
			return nil, fmt.Errorf("plagnd: section [%s]: %w", name, err)
		}
		byName[name] = a
	}

	for _, name := range c.Sections() {
		if err := wireTranslators(c, name, byName); err != nil {
			return nil, fmt.Errorf("plagnd: section [%s]: %w", name, err)
		}
	}

	out := make([]adapter.Adapter, 0, len(byName))
	for _, name := range c.Sections() {
		out = append(out, byName[name])
	}
	return out, nil
}

func buildAdapter(c *config.Config, name, kind string, plagID uint64, log *logging.Logger) (adapter.Adapter, error) {
	switch kind {
	case `mqttClient`:
		return buildMqttAdapter(c, name, plagID, log)
	case `modbusTcpClient`:
		return buildModbusTCPAdapter(c, name, plagID, log)
	case `modbusSerialClient`:
		// Serial port I/O (baud/parity/stop-bits line discipline) has no
		// grounded dependency in the retrieval pack; the codec's serial
		// framing (internal/modbus) is implemented and tested, but no
		// concrete Transport drives real serial hardware yet.
		return nil, fmt.Errorf("modbusSerialClient: serial transport not implemented")
	case `udp`:
		return buildUdpAdapter(c, name, plagID, log)
	case `httpServer`:
		return buildHttpServerAdapter(c, name, plagID, log)
	}
	return nil, fmt.Errorf("unknown adapter type %q", kind)
}

func buildMqttAdapter(c *config.Config, name string, plagID uint64, log *logging.Logger) (adapter.Adapter, error) {
	host := c.GetDefault(name, `host`, `localhost`)
	port, err := c.GetInt(name, `port`, 1883)
	if err != nil {
		return nil, err
	}
	certFile, _ := c.Get(name, `certFile`)
	var tr transport.Transport
	addr := net.JoinHostPort(host, strconv.FormatInt(port, 10))
	if strings.HasPrefix(strconv.FormatInt(port, 10), `8`) || certFile != `` {
		tr = transport.NewTLSClient(addr, 0, nil)
	} else {
		tr = transport.NewTCPClient(addr, 0)
	}

	version, err := c.GetInt(name, `version`, 4)
	if err != nil {
		return nil, err
	}
	keepAlive, err := c.GetDuration(name, `keepAlive`, 300*time.Second)
	if err != nil {
		return nil, err
	}
	cleanSession, err := c.GetBool(name, `cleanSession`, true)
	if err != nil {
		return nil, err
	}

	var subs []mqtt.Subscription
	for _, entry := range c.GetStringSlice(name, `subscribe`, nil) {
		if entry == `` {
			continue
		}
		filter, qos := entry, uint8(0)
		if idx := strings.LastIndex(entry, `:`); idx >= 0 {
			filter = entry[:idx]
			if n, err := strconv.Atoi(entry[idx+1:]); err == nil {
				qos = uint8(n)
			}
		}
		subs = append(subs, mqtt.Subscription{Filter: filter, QoS: qos})
	}

	opts := mqtt.Options{
		Version:       uint8(version),
		ClientID:      c.GetDefault(name, `clientId`, name),
		KeepAlive:     keepAlive,
		CleanSession:  cleanSession,
		UserName:      c.GetDefault(name, `userName`, ``),
		Password:      c.GetDefault(name, `password`, ``),
		Subscriptions: subs,
	}
	return adapter.NewMqttAdapter(name, plagID, tr, opts, log), nil
}

func buildModbusTCPAdapter(c *config.Config, name string, plagID uint64, log *logging.Logger) (adapter.Adapter, error) {
	host := c.GetDefault(name, `serverIP`, `localhost`)
	port, err := c.GetInt(name, `port`, 502)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.FormatInt(port, 10))
	tr := transport.NewTCPClient(addr, 0)

	ownID, err := c.GetInt(name, `ownId`, 0)
	if err != nil {
		return nil, err
	}
	codec := modbus.NewCodec(name, false, uint8(ownID))

	var polls []*adapter.PollEntry
	for _, idx := range indexedKeys(c, name, `poll`) {
		base := fmt.Sprintf("poll[%d]", idx)
		fc, err := c.GetInt(name, base+`.fc`, int64(modbus.ReadHoldingRegister))
		if err != nil {
			return nil, err
		}
		start, err := c.GetInt(name, base+`.start`, 0)
		if err != nil {
			return nil, err
		}
		qty, err := c.GetInt(name, base+`.quantity`, 1)
		if err != nil {
			return nil, err
		}
		every, err := c.GetDuration(name, base+`.every`, time.Second)
		if err != nil {
			return nil, err
		}
		polls = append(polls, &adapter.PollEntry{
			FunctionCode: modbus.FunctionCode(fc),
			StartAddress: uint16(start),
			Quantity:     uint16(qty),
			Every:        every,
		})
	}

	return adapter.NewModbusAdapter(name, plagID, tr, codec, polls, log), nil
}

func buildUdpAdapter(c *config.Config, name string, plagID uint64, log *logging.Logger) (adapter.Adapter, error) {
	listen := c.GetDefault(name, `listen`, `:0`)
	laddr, err := net.ResolveUDPAddr(`udp`, listen)
	if err != nil {
		return nil, err
	}
	var remote *net.UDPAddr
	if to, ok := c.Get(name, `remote`); ok {
		remote, err = net.ResolveUDPAddr(`udp`, to)
		if err != nil {
			return nil, err
		}
	}
	return adapter.NewUdpAdapter(name, plagID, laddr, remote, log), nil
}

func buildHttpServerAdapter(c *config.Config, name string, plagID uint64, log *logging.Logger) (adapter.Adapter, error) {
	listen := c.GetDefault(name, `listen`, `:8080`)
	return adapter.NewHttpServerAdapter(name, plagID, listen, log), nil
}

// indexedKeys scans sectionName for every 1-based index used by
// `prefix[N]...` keys, since Config has no native array type.
func indexedKeys(c *config.Config, sectionName, prefix string) []int {
	seen := map[int]bool{}
	marker := prefix + `[`
	for _, k := range c.Keys(sectionName) {
		if !strings.HasPrefix(k, marker) {
			continue
		}
		rest := k[len(marker):]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			continue
		}
		if n, err := strconv.Atoi(rest[:end]); err == nil {
			seen[n] = true
		}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// wireTranslators builds one Translator per `target[N]` entry in
// sectionName, with its rewrite table drawn from
// `target[N].rewrite[M].key`/`.expr`.
func wireTranslators(c *config.Config, sectionName string, byName map[string]adapter.Adapter) error {
	source, ok := byName[sectionName]
	if !ok {
		return nil
	}
	dist := distributorOf(source)
	if dist == nil {
		return nil
	}
	for _, idx := range indexedKeys(c, sectionName, `target`) {
		base := fmt.Sprintf("target[%d]", idx)
		targetName, ok := c.Get(sectionName, base)
		if !ok || targetName == `` {
			continue
		}
		targetAdapter, ok := byName[targetName]
		if !ok {
			return fmt.Errorf("target %q not found", targetName)
		}

		var rewrite []translator.RewriteEntry
		for _, ridx := range indexedKeys(c, sectionName, base+`.rewrite`) {
			rbase := fmt.Sprintf("%s.rewrite[%d]", base, ridx)
			key, _ := c.Get(sectionName, rbase+`.key`)
			expr, _ := c.Get(sectionName, rbase+`.expr`)
			if key == `` || expr == `` {
				continue
			}
			rewrite = append(rewrite, translator.RewriteEntry{TargetKey: key, SourceKeyExpr: expr})
		}

		t := translator.New(sectionName, targetName, nativeVariant(targetAdapter), rewrite, targetAsTranslatorTarget(targetAdapter), nil)
		dist.Attach(t)
	}
	return nil
}

// distributorOf exposes the Distributor embedded in whichever concrete
// Adapter a is, without adapter needing to export it on the interface.
func distributorOf(a adapter.Adapter) *adapter.Distributor {
	type hasDistributor interface {
		DistributorRef() *adapter.Distributor
	}
	if d, ok := a.(hasDistributor); ok {
		return d.DistributorRef()
	}
	return nil
}

func nativeVariant(a adapter.Adapter) record.Variant {
	switch a.Kind() {
	case adapter.KindMqtt:
		return record.VariantMqtt
	case adapter.KindModbus:
		return record.VariantModbus
	case adapter.KindHttpServer:
		return record.VariantHttpServer
	case adapter.KindUdp:
		return record.VariantUdp
	}
	return record.VariantMap
}

// adapterTarget adapts an adapter.Adapter to translator.Target.
type adapterTarget struct{ a adapter.Adapter }

func (t adapterTarget) Name() string                 { return t.a.Name() }
func (t adapterTarget) Enqueue(r record.Record) error { return t.a.Enqueue(r) }

func targetAsTranslatorTarget(a adapter.Adapter) translator.Target {
	return adapterTarget{a: a}
}
