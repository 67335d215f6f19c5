package mqtt

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/rice/internal/infrastructure/config"
	"github.com/nerrad567/rice/internal/status"
)

const testBroker = "127.0.0.1:1883"

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "rice-test",
		},
		QoS: 1,
	}
}

// requireBroker skips the test when no broker listens on testBroker.
func requireBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testBroker, 200*time.Millisecond)
	if err != nil {
		t.Skipf("MQTT broker not available at %s: %v", testBroker, err)
	}
	conn.Close()
}

// =============================================================================
// Option Tests (no broker required)
// =============================================================================

func TestBuildClientID(t *testing.T) {
	a := buildClientID("rice", "ac")
	b := buildClientID("rice", "ac")

	if !strings.HasPrefix(a, "rice-ac-") {
		t.Errorf("buildClientID() = %q, want rice-ac- prefix", a)
	}
	if len(a) != len("rice-ac-")+clientIDSuffixLen {
		t.Errorf("buildClientID() = %q, want %d char suffix", a, clientIDSuffixLen)
	}
	if a == b {
		t.Error("buildClientID() returned the same ID twice")
	}
	if !strings.HasPrefix(buildClientID("", "mic"), "rice-mic-") {
		t.Error("empty base did not fall back to rice")
	}
}

func TestBuildClientOptions(t *testing.T) {
	tests := []struct {
		name       string
		tls        bool
		username   string
		wantScheme string
	}{
		{"plain anonymous", false, "", "tcp"},
		{"tls with auth", true, "rice", "ssl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Broker.TLS = tt.tls
			cfg.Auth.Username = tt.username
			cfg.Auth.Password = "secret"

			opts := buildClientOptions(cfg, "rice-ac-12345678")

			if len(opts.Servers) != 1 || opts.Servers[0].Scheme != tt.wantScheme {
				t.Fatalf("Servers = %v, want one %s:// broker", opts.Servers, tt.wantScheme)
			}
			if opts.Servers[0].Host != "127.0.0.1:1883" {
				t.Errorf("broker host = %q", opts.Servers[0].Host)
			}
			if opts.ClientID != "rice-ac-12345678" {
				t.Errorf("ClientID = %q", opts.ClientID)
			}
			if opts.Username != tt.username {
				t.Errorf("Username = %q, want %q", opts.Username, tt.username)
			}
			if tt.tls && (opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion) {
				t.Error("TLS enabled without a minimum version")
			}
			if opts.ConnectRetry {
				t.Error("ConnectRetry enabled; first connect must fail fast")
			}
			if !opts.AutoReconnect {
				t.Error("AutoReconnect disabled")
			}
		})
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, "bulb", "rice-bulb-abcdef12")

	if !opts.WillEnabled {
		t.Fatal("LWT not enabled")
	}
	if opts.WillTopic != "rice/bulb/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("Will retained=%v qos=%d, want retained qos 1", opts.WillRetained, opts.WillQos)
	}
	if !strings.Contains(string(opts.WillPayload), `"reason":"unexpected_disconnect"`) {
		t.Errorf("WillPayload = %s", opts.WillPayload)
	}
}

func TestStatusPayloads(t *testing.T) {
	if p := buildOnlinePayload("id"); !strings.Contains(p, `"status":"online"`) || !strings.Contains(p, `"client_id":"id"`) {
		t.Errorf("online payload = %s", p)
	}
	if p := buildOfflinePayload("id"); !strings.Contains(p, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", p)
	}
}

func TestTopics(t *testing.T) {
	if got := StatusTopic("ac"); got != "rice/ac/status" {
		t.Errorf("StatusTopic() = %q", got)
	}
	if got := StateTopic("ac"); got != "rice/ac/state" {
		t.Errorf("StateTopic() = %q", got)
	}
}

// The state sink publishes through the client.
var _ status.Publisher = (*Client)(nil)

func TestPublishState_NotConnected(t *testing.T) {
	if err := (&Client{}).PublishState("ac", []byte(`{}`)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishState() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	if err := (&Client{}).HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	start := time.Now()
	_, err := Connect(cfg, "ac")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if elapsed := time.Since(start); elapsed > defaultConnectTimeout+time.Second {
		t.Errorf("Connect() took %v against a refused port", elapsed)
	}
}

// =============================================================================
// Broker Tests
// =============================================================================

func TestConnect(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig(), "ac")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if !strings.HasPrefix(client.ClientID(), "rice-test-ac-") {
		t.Errorf("ClientID() = %q", client.ClientID())
	}
}

func TestHealthCheck(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig(), "ac")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() cancelled error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig(), "ac")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "rice/test/state", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "rice/test/state", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishStateRoundtrip(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig(), "roundtrip")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := StateTopic("roundtrip")
	payload := `{"class":"ac-on","text":""}`
	if err := client.PublishState("roundtrip", []byte(payload)); err != nil {
		t.Fatalf("PublishState() error = %v", err)
	}

	// A fresh subscriber receives the retained message.
	received := make(chan string, 1)
	opts := pahomqtt.NewClientOptions().AddBroker("tcp://" + testBroker).SetClientID(buildClientID("rice-test", "sub"))
	sub := pahomqtt.NewClient(opts)
	if token := sub.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", token.Error())
	}
	defer sub.Disconnect(100)

	sub.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		select {
		case received <- string(msg.Payload()):
		default:
		}
	})

	select {
	case got := <-received:
		if got != payload {
			t.Errorf("retained payload = %q, want %q", got, payload)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for retained message")
	}
}

func TestPublishDisconnected(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig(), "ac")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if err := client.PublishState("ac", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close error = %v, want ErrNotConnected", err)
	}
}
