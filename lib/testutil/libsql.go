package testutil

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const libsqlImage = "ghcr.io/tursodatabase/libsql-server:latest"

// StartLibsql runs a sqld container for the length of the test and returns
// the url its http endpoint listens on.
func StartLibsql(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping libsql container in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	sqld, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        libsqlImage,
				ExposedPorts: []string{"8080/tcp"},
				WaitingFor:   wait.ForHTTP("/health").WithPort("8080/tcp"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := sqld.Terminate(context.Background())
		if err != nil {
			t.Error(err)
		}
	})

	host, err := sqld.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := sqld.MappedPort(ctx, "8080/tcp")
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}
