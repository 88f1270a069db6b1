//go:build integration

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"certhub/internal/domain/notification"
)

func startRabbitMQ(ctx context.Context, t *testing.T) string {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-management",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestPublisherDeliversToBoundQueue(t *testing.T) {
	ctx := context.Background()
	url := startRabbitMQ(ctx, t)

	conn, err := Connect(url, 5, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := SetupChannel(conn, "notifications")
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "notification.#", "notifications", false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ev := notification.Event{ID: 3, UserID: 9, Type: notification.TypeTargetLevelReset, Message: "reset"}
	require.NoError(t, NewPublisher(ch, "notifications").Publish(ctx, ev))

	select {
	case d := <-deliveries:
		var got notification.Event
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, "notification.target_level_reset", d.RoutingKey)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
