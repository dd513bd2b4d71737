package models

type Chat struct {
	ChatID     string `json:"chatid" bson:"chatid"`
	BuyerID    string `json:"buyerId" bson:"buyerId"`
	SellerID   string `json:"sellerId" bson:"sellerId"`
	BuildingID string `json:"buildingId" bson:"buildingId"`
	CreatedAt  int64  `json:"createdAt" bson:"createdAt"`
}

type Message struct {
	MessageID string `json:"messageid" bson:"messageid"`
	ChatID    string `json:"chatId" bson:"chatId"`
	SenderID  string `json:"senderId" bson:"senderId"`
	Text      string `json:"text" bson:"text"`
	IsRead    bool   `json:"isRead" bson:"isRead"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
}

// Index represents a created-document event emitted over the realtime channel.
type Index struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
	ItemId     string `json:"item_id"`
	ItemType   string `json:"item_type"`
}
