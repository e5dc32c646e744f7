package reporting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	. "github.com/smartystreets/goconvey/convey"
)

func startTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	opts := &server.Options{Host: "127.0.0.1", Port: -1}
	srv, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded nats server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(2 * time.Second) {
		t.Fatal("embedded nats server never became ready")
	}
	t.Cleanup(srv.Shutdown)
	return srv, srv.ClientURL()
}

func TestPublisher(t *testing.T) {
	Convey("Publisher", t, func() {
		_, url := startTestServer(t)

		Convey("publishes a batch summary that a subscriber receives", func() {
			sub, err := nats.Connect(url)
			So(err, ShouldBeNil)
			defer sub.Close()

			msgs := make(chan *nats.Msg, 1)
			_, err = sub.Subscribe("pickcheck.batches", func(m *nats.Msg) { msgs <- m })
			So(err, ShouldBeNil)
			So(sub.Flush(), ShouldBeNil)

			pub, err := Connect(url, "pickcheck.batches")
			So(err, ShouldBeNil)
			defer pub.Close()

			So(pub.Publish(BatchSummary{Property: "array_roundtrip", Iterations: 100, Failures: 0}), ShouldBeNil)

			select {
			case m := <-msgs:
				var got BatchSummary
				So(json.Unmarshal(m.Data, &got), ShouldBeNil)
				So(got.Property, ShouldEqual, "array_roundtrip")
				So(got.Iterations, ShouldEqual, 100)
			case <-time.After(2 * time.Second):
				t.Fatal("did not receive published summary")
			}
		})
	})
}
