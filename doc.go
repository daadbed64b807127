// Package mqttproto implements a sans-I/O MQTT v3.1.1 and v5.0 protocol
// engine: a wire codec, a property table, a packet-identifier allocator, a
// send store, topic-alias tables, a receive-stream assembler, and a
// connection state machine, assembled behind a single Connection type.
//
// The engine performs no network I/O of its own and starts no goroutines.
// A host feeds inbound bytes to Connection.Recv and drains the returned
// []Event, which tells the host what to do next: write bytes to the
// transport, arm or cancel a timer, close the transport, or deliver a
// received packet to the application. This mirrors how a TLS or HTTP/2
// state machine is typically structured in Go: the transport loop belongs
// to the caller, not the library.
//
// # Quick start
//
//	conn := mqttproto.NewConnection(mqttproto.RoleClient, mqttproto.ProtocolV5,
//	    mqttproto.WithKeepAlive(30*time.Second),
//	    mqttproto.WithReceiveMaximum(64))
//
//	// Once the transport's own handshake has completed:
//	_, err := conn.NotifyHandshaked()
//
//	events, err := conn.Connect(mqttproto.ConnectOptions{ClientID: "sensor-01", CleanStart: true})
//	// ... write any Send events to the transport ...
//
//	events, err = conn.Recv(bytesFromTransport)
//	for _, ev := range events {
//	    switch e := ev.(type) {
//	    case mqttproto.SendEvent:
//	        transport.Write(e.Data)
//	    case mqttproto.PacketReceivedEvent:
//	        handleApplicationPacket(e.Packet)
//	    case mqttproto.TimerEvent:
//	        armOrCancel(e)
//	    case mqttproto.CloseEvent:
//	        transport.Close()
//	    case mqttproto.ErrorEvent:
//	        log.Println(e.Err)
//	    }
//	}
//
// # Packages
//
// internal/wire holds the packet encoders/decoders and the property table.
// internal/packetid holds the packet-identifier allocator. internal/sendstore
// holds the retransmission store. internal/topicalias holds the send- and
// receive-side alias tables. internal/assembler turns a byte stream into
// framed packets.
package mqttproto
