package voting

import (
	"github.com/topi314/clubagenda/server/database"
)

// RecommendationQuestion is the question whose 0-10 scores make up the meeting recommendation score.
const RecommendationQuestion = "recommendation"

type TallyEntry struct {
	ContactID int `json:"contact_id"`
	Count     int `json:"count"`
}

// Counts groups the award ballots per category and contact, in the order contacts first received a ballot.
func Counts(votes []database.Vote) map[database.AwardCategory][]TallyEntry {
	counts := make(map[database.AwardCategory][]TallyEntry)
	for _, vote := range votes {
		if vote.AwardCategory == nil || vote.ContactID == nil {
			continue
		}
		entries := counts[*vote.AwardCategory]
		found := false
		for i := range entries {
			if entries[i].ContactID == *vote.ContactID {
				entries[i].Count++
				found = true
				break
			}
		}
		if !found {
			entries = append(entries, TallyEntry{ContactID: *vote.ContactID, Count: 1})
		}
		counts[*vote.AwardCategory] = entries
	}
	return counts
}

// Winners picks the contact with the most ballots per category. votes must be ordered by cast time; on a tie the
// contact that reached the highest count first wins.
func Winners(votes []database.Vote) map[database.AwardCategory]int {
	type best struct {
		contactID int
		count     int
	}

	counts := make(map[database.AwardCategory]map[int]int)
	leaders := make(map[database.AwardCategory]best)
	for _, vote := range votes {
		if vote.AwardCategory == nil || vote.ContactID == nil {
			continue
		}
		category := *vote.AwardCategory
		if counts[category] == nil {
			counts[category] = make(map[int]int)
		}
		counts[category][*vote.ContactID]++

		if n := counts[category][*vote.ContactID]; n > leaders[category].count {
			leaders[category] = best{contactID: *vote.ContactID, count: n}
		}
	}

	winners := make(map[database.AwardCategory]int, len(leaders))
	for category, leader := range leaders {
		winners[category] = leader.contactID
	}
	return winners
}

// RecommendationScore averages the recommendation scores of at least one. It is nil without such scores.
func RecommendationScore(votes []database.Vote) *float64 {
	var sum, n int
	for _, vote := range votes {
		if vote.Question == nil || *vote.Question != RecommendationQuestion || vote.Score == nil || *vote.Score < 1 {
			continue
		}
		sum += *vote.Score
		n++
	}
	if n == 0 {
		return nil
	}
	score := float64(sum) / float64(n)
	return &score
}

// ApplyTally writes the award winners and the recommendation score of a meeting.
func ApplyTally(votes []database.Vote, meeting *database.Meeting) {
	winners := Winners(votes)
	pick := func(category database.AwardCategory) *int {
		if contactID, ok := winners[category]; ok {
			return &contactID
		}
		return nil
	}

	meeting.BestSpeakerID = pick(database.AwardCategorySpeaker)
	meeting.BestEvaluatorID = pick(database.AwardCategoryEvaluator)
	meeting.BestRoleTakerID = pick(database.AwardCategoryRoleTaker)
	meeting.BestTableTopicID = pick(database.AwardCategoryTableTopic)
	meeting.RecommendationScore = RecommendationScore(votes)
}
