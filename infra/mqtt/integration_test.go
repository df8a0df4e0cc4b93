package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/infra/logger"
)

func startMosquitto(t *testing.T) string {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// fakeDevice answers every rpc_request with rpc_ok and publishes a status
// tree after read_status.
func fakeDevice(t *testing.T, url string) {
	t.Helper()
	opts := paho.NewClientOptions().AddBroker(url).SetClientID("fake-device")
	c := paho.NewClient(opts)
	tok := c.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	t.Cleanup(func() { c.Disconnect(100) })

	sub := c.Subscribe("bot/device_7/from_clients", 1, func(c paho.Client, m paho.Message) {
		var env struct {
			Args struct {
				Label string `json:"label"`
			} `json:"args"`
			Body []struct {
				Kind string `json:"kind"`
			} `json:"body"`
		}
		if err := json.Unmarshal(m.Payload(), &env); err != nil {
			return
		}
		if len(env.Body) == 1 && env.Body[0].Kind == "read_status" {
			c.Publish("bot/device_7/status", 0, false, `{"location_data":{"position":{"x":1,"y":2,"z":3}}}`)
		}
		c.Publish("bot/device_7/from_device", 1, false, fmt.Sprintf(`{"kind":"rpc_ok","args":{"label":%q}}`, env.Args.Label))
	})
	require.True(t, sub.WaitTimeout(5*time.Second))
	require.NoError(t, sub.Error())
}

func TestIntegrationRequestAndStatus(t *testing.T) {
	url := startMosquitto(t)
	fakeDevice(t, url)

	var cli *PahoClient
	var err error
	for i := 0; i < 5; i++ {
		cli, err = NewPahoClient(Config{Broker: url, QoS: map[string]byte{"command": 1, "from_device": 1}}, testInfo, WithLogger(logger.NopLogger{}))
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err)
	defer cli.Disconnect()

	ctx := context.Background()
	require.NoError(t, cli.Request(ctx, frame.MoveTo(1, 2, 3), 5*time.Second))

	w := cli.Listen(broker.ChannelStatus)
	defer w.Close()
	_, err = cli.Publish(ctx, frame.ReadStatus{})
	require.NoError(t, err)
	msg, err := w.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Payload), `"position"`)
}
