package websocket

import "github.com/rs/zerolog/log"

// targeted is a message addressed to the subscribers of one movie.
type targeted struct {
	movieID string
	message []byte
}

// Hub maintains the set of connected clients and broadcasts catalogue and
// review activity to them. All state is owned by the Run loop; broadcasts
// from handlers go through channels.
type Hub struct {
	clients map[*Client]bool

	// Messages for every connected client.
	broadcast chan []byte

	// Messages for the subscribers of a single movie (plus everyone
	// without a movie subscription, who gets the full feed).
	movie chan targeted

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		movie:      make(chan targeted, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Websocket client connected")

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Websocket client disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.send(client, message)
			}

		case t := <-h.movie:
			for client := range h.clients {
				if client.MovieID == "" || client.MovieID == t.movieID {
					h.send(client, t.message)
				}
			}
		}
	}
}

// BroadcastAll queues a message for every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.broadcast <- message
}

// BroadcastMovie queues a message for clients following the given movie and
// for clients on the global feed.
func (h *Hub) BroadcastMovie(movieID string, message []byte) {
	h.movie <- targeted{movieID: movieID, message: message}
}

// send delivers to one client, dropping the client if its buffer is full.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
	}
}
