package models

import "time"

type Building struct {
	BuildingID    string      `json:"buildingid" bson:"buildingid"`
	Name          string      `json:"name" bson:"name"`
	Address       string      `json:"address" bson:"address"`
	Type          string      `json:"type" bson:"type"`
	SellerID      string      `json:"sellerId" bson:"sellerId"`
	DetailIDs     []string    `json:"detailIds,omitempty" bson:"detailIds,omitempty"`
	Image         string      `json:"image,omitempty" bson:"image,omitempty"`
	Gallery       []string    `json:"gallery,omitempty" bson:"gallery,omitempty"`
	FeatureVector []string    `json:"featureVector,omitempty" bson:"featureVector,omitempty"`
	Location      Coordinates `json:"location" bson:"location,omitempty"`
	Rating        float64     `json:"rating,omitempty" bson:"rating,omitempty"`
	ReviewCount   int         `json:"reviewcount,omitempty" bson:"reviewcount,omitempty"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

// BuildingDetail is one sellable unit inside a building (a floor, flat or
// office) with its own pricing rows.
type BuildingDetail struct {
	DetailID   string   `json:"detailid" bson:"detailid"`
	BuildingID string   `json:"buildingId" bson:"buildingId"`
	Bedrooms   int      `json:"bedrooms" bson:"bedrooms"`
	Bathrooms  int      `json:"bathrooms" bson:"bathrooms"`
	Area       float64  `json:"area" bson:"area"`
	Floor      int      `json:"floor,omitempty" bson:"floor,omitempty"`
	Facing     string   `json:"facing,omitempty" bson:"facing,omitempty"`
	PricingIDs []string `json:"pricingIds,omitempty" bson:"pricingIds,omitempty"`
}

type Pricing struct {
	PricingID  string  `json:"pricingid" bson:"pricingid"`
	DetailID   string  `json:"detailId" bson:"detailId"`
	Price      float64 `json:"price" bson:"price"`
	Negotiable bool    `json:"negotiable" bson:"negotiable"`
	Currency   string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

type Review struct {
	ReviewID   string    `json:"reviewid" bson:"reviewid"`
	BuildingID string    `json:"buildingId" bson:"buildingId"`
	UserID     string    `json:"userId" bson:"userId"`
	Rating     float64   `json:"rating" bson:"rating"`
	Comment    string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

type Like struct {
	UserID     string    `json:"userId" bson:"userId"`
	BuildingID string    `json:"buildingId" bson:"buildingId"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
