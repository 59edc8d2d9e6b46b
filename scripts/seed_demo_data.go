//go:build ignore
// +build ignore

// Seeds demo conversations with rule-classified sentiment so a fresh
// dashboard has data to show. Safe to re-run: previous demo rows are
// removed first.
//
// Usage: go run scripts/seed_demo_data.go
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/database"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
	"github.com/chatdesk-team/chatdesk/pkg/config"
)

type demoMessage struct {
	Direction entities.MessageDirection
	Text      string
	Age       time.Duration // how far in the past the message arrived
}

type demoConversation struct {
	ContactID   string
	ContactName string
	Platform    entities.Platform
	Messages    []demoMessage
}

var demoConversations = []demoConversation{
	{
		ContactID:   "6281234567001@s.whatsapp.net",
		ContactName: "Budi Santoso",
		Platform:    entities.PlatformWhatsApp,
		Messages: []demoMessage{
			{entities.DirectionInbound, "Halo, paketnya sudah sampai. Barangnya bagus banget, terima kasih!", 6 * 24 * time.Hour},
			{entities.DirectionOutbound, "Terima kasih kembali, Pak Budi! Senang bisa membantu.", 6*24*time.Hour - 10*time.Minute},
			{entities.DirectionInbound, "Pengiriman cepat dan adminnya ramah. Recommended!", 5 * 24 * time.Hour},
		},
	},
	{
		ContactID:   "6281234567002@s.whatsapp.net",
		ContactName: "Siti Rahayu",
		Platform:    entities.PlatformWhatsApp,
		Messages: []demoMessage{
			{entities.DirectionInbound, "Pesanan saya belum sampai, sudah seminggu. Lambat sekali pengirimannya", 4 * 24 * time.Hour},
			{entities.DirectionOutbound, "Mohon maaf atas keterlambatan, kami cek dulu resinya ya Bu", 4*24*time.Hour - 15*time.Minute},
			{entities.DirectionInbound, "Saya kecewa, barangnya rusak pas sampai. Mau refund", 3 * 24 * time.Hour},
		},
	},
	{
		ContactID:   "17841405309211001",
		ContactName: "Dina Putri",
		Platform:    entities.PlatformInstagram,
		Messages: []demoMessage{
			{entities.DirectionInbound, "Kak, ini ready stock warna hitam?", 2 * 24 * time.Hour},
			{entities.DirectionOutbound, "Ready kak, silakan langsung checkout ya", 2*24*time.Hour - 5*time.Minute},
			{entities.DirectionInbound, "Oke sip, makasih kak. Pelayanannya mantap", 2*24*time.Hour - 2*time.Minute},
		},
	},
	{
		ContactID:   "24425678901234002",
		ContactName: "James Carter",
		Platform:    entities.PlatformFacebook,
		Messages: []demoMessage{
			{entities.DirectionInbound, "The product arrived broken and support has been useless. Terrible experience", 24 * time.Hour},
			{entities.DirectionOutbound, "We're very sorry to hear that. We'll send a replacement right away.", 24*time.Hour - 20*time.Minute},
			{entities.DirectionInbound, "Thanks, the replacement arrived fast. Great service, much appreciated!", 3 * time.Hour},
		},
	},
	{
		ContactID:   "6281234567003@s.whatsapp.net",
		ContactName: "Andi Wijaya",
		Platform:    entities.PlatformWhatsApp,
		Messages: []demoMessage{
			{entities.DirectionInbound, "Berapa ongkir ke Surabaya?", 2 * time.Hour},
			{entities.DirectionOutbound, "Untuk Surabaya ongkirnya Rp18.000, estimasi 2-3 hari kak", 110 * time.Minute},
		},
	},
}

func main() {
	log.Println("🚀 Seeding demo conversations...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	contactIDs := make([]string, 0, len(demoConversations))
	for _, conv := range demoConversations {
		contactIDs = append(contactIDs, conv.ContactID)
	}

	log.Println("🗑️  Cleaning up previous demo rows...")
	// Delete analyses and messages first, then their sessions
	db.Where("session_id IN (SELECT id FROM chat_sessions WHERE contact_id IN ?)", contactIDs).Delete(&entities.SentimentAnalysis{})
	db.Where("session_id IN (SELECT id FROM chat_sessions WHERE contact_id IN ?)", contactIDs).Delete(&entities.ChatMessage{})
	db.Where("contact_id IN ?", contactIDs).Delete(&entities.ChatSession{})

	classifier := sentiment.NewClassifier(sentiment.DefaultLexicon())
	now := time.Now()

	var totalMessages, totalAnalyses int
	sentimentCounts := map[entities.Sentiment]int{}

	for _, conv := range demoConversations {
		sess := entities.NewChatSession(conv.ContactID, conv.ContactName, conv.Platform)
		if err := db.Create(sess).Error; err != nil {
			log.Fatalf("❌ Failed to create session for %s: %v", conv.ContactName, err)
		}

		var newest time.Time
		for _, dm := range conv.Messages {
			payload, err := entities.NewTextEnvelope(dm.Text).Encode()
			if err != nil {
				log.Fatalf("❌ Failed to encode message for %s: %v", conv.ContactName, err)
			}

			msg := entities.NewChatMessage(sess.ID, dm.Direction, payload)
			msg.CreatedAt = now.Add(-dm.Age)
			if err := db.Create(msg).Error; err != nil {
				log.Fatalf("❌ Failed to create message for %s: %v", conv.ContactName, err)
			}
			totalMessages++
			if msg.CreatedAt.After(newest) {
				newest = msg.CreatedAt
			}

			// Only customer messages get classified
			if dm.Direction != entities.DirectionInbound {
				continue
			}

			result := classifier.Analyze(dm.Text)
			analysis := entities.NewSentimentAnalysis(msg.ID, sess.ID, result, entities.AnalysisSourceRule)
			analysis.AnalyzedAt = msg.CreatedAt
			analysis.CreatedAt = msg.CreatedAt
			analysis.UpdatedAt = msg.CreatedAt
			if err := db.Create(analysis).Error; err != nil {
				log.Fatalf("❌ Failed to create analysis for %s: %v", conv.ContactName, err)
			}
			totalAnalyses++
			sentimentCounts[result.Sentiment]++
		}

		sess.TouchLastMessage(newest)
		if err := db.Save(sess).Error; err != nil {
			log.Fatalf("❌ Failed to update session for %s: %v", conv.ContactName, err)
		}

		log.Printf("🟢 %s (%s): %d messages", conv.ContactName, conv.Platform, len(conv.Messages))
	}

	fmt.Printf("\n═══════════════════════════════════════\n")
	fmt.Printf("✅ Seeded %d sessions, %d messages, %d analyses\n", len(demoConversations), totalMessages, totalAnalyses)
	fmt.Printf("   positive: %d  negative: %d  neutral: %d\n",
		sentimentCounts[entities.SentimentPositive],
		sentimentCounts[entities.SentimentNegative],
		sentimentCounts[entities.SentimentNeutral])
	fmt.Printf("═══════════════════════════════════════\n")
}
