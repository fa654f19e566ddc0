package fieldauditstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/queries/scopequery"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hospitals lists the distinct facilities audited within sc, by hospital id.
func (s *Store) Hospitals(ctx context.Context, sc repo.Scope) ([]repo.Hospital, error) {
	match := bson.M{}
	if !scopequery.Apply(match, sc, "district_id") {
		return nil, nil
	}
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": bson.M{
			"hospital_id": "$hospital_id",
			"ehcp_name":   "$ehcp_name",
			"district_id": "$district_id",
		}}},
		{"$sort": bson.D{{Key: "_id.hospital_id", Value: 1}, {Key: "_id.ehcp_name", Value: 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []repo.Hospital
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				HospitalID string             `bson:"hospital_id"`
				EHCPName   string             `bson:"ehcp_name"`
				DistrictID primitive.ObjectID `bson:"district_id"`
			} `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, repo.Hospital{
			HospitalID: row.ID.HospitalID,
			EHCPName:   row.ID.EHCPName,
			DistrictID: row.ID.DistrictID,
		})
	}
	return out, cur.Err()
}

// DistrictTotals returns audit count and beneficiary sum per district.
func (s *Store) DistrictTotals(ctx context.Context, sc repo.Scope) ([]repo.DistrictTotals, error) {
	match := bson.M{}
	if !scopequery.Apply(match, sc, "district_id") {
		return nil, nil
	}
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":           "$district_id",
			"audits":        bson.M{"$sum": 1},
			"beneficiaries": bson.M{"$sum": "$beneficiaries"},
		}},
		{"$sort": bson.M{"_id": 1}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []repo.DistrictTotals
	for cur.Next(ctx) {
		var row struct {
			ID            primitive.ObjectID `bson:"_id"`
			Audits        int64              `bson:"audits"`
			Beneficiaries int64              `bson:"beneficiaries"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, repo.DistrictTotals{
			DistrictID:         row.ID,
			AuditCount:         row.Audits,
			TotalBeneficiaries: row.Beneficiaries,
		})
	}
	return out, cur.Err()
}

// MonthlyCounts buckets audits created since the given instant by UTC
// calendar month, oldest first. Months with no audits are absent.
func (s *Store) MonthlyCounts(ctx context.Context, sc repo.Scope, since time.Time) ([]repo.MonthCount, error) {
	match := bson.M{"created_at": bson.M{"$gte": since}}
	if !scopequery.Apply(match, sc, "district_id") {
		return nil, nil
	}
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id": bson.M{
				"y": bson.M{"$year": "$created_at"},
				"m": bson.M{"$month": "$created_at"},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{{Key: "_id.y", Value: 1}, {Key: "_id.m", Value: 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []repo.MonthCount
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				Y int `bson:"y"`
				M int `bson:"m"`
			} `bson:"_id"`
			Count int64 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, repo.MonthCount{Year: row.ID.Y, Month: time.Month(row.ID.M), Count: row.Count})
	}
	return out, cur.Err()
}
