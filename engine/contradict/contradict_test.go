package contradict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

func ext(url string, keyPoints ...string) domain.Extraction {
	return domain.Extraction{URL: url, KeyPoints: keyPoints}
}

func TestDetect_FewerThanTwo(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.NotNil(t, Detect(nil))
	assert.Empty(t, Detect([]domain.Extraction{ext("https://a.test", "The plant opened in 2019")}))
}

func TestDetect_DateDisagreement(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "The plant opened in 2019 after delays"),
		ext("https://b.test", "The plant opened in 2021"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, TopicDate, got[0].Topic)
	assert.Equal(t, "Sources disagree about date", got[0].Description)
	assert.Equal(t, domain.Claim{URL: "https://a.test", Text: "The plant opened in 2019 after delays"}, got[0].Claims[0])
	assert.Equal(t, domain.Claim{URL: "https://b.test", Text: "The plant opened in 2021"}, got[0].Claims[1])
}

func TestDetect_AgreementIsNotContradiction(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "The plant opened on March 3, 2019"),
		ext("https://b.test", "The plant opened in 2019"),
	})
	assert.Empty(t, got)
}

func TestDetect_UnrelatedClaimsIgnored(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "The bridge opened in 2019"),
		ext("https://b.test", "Rainfall peaked in 2021"),
	})
	assert.Empty(t, got)
}

func TestDetect_TopicsInOrder(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test",
			"The outage hit 5,000 homes in 2020",
			"Turnout reached 40% in the district",
			"The mayor Jane Doe announced the plan",
			"The outage was caused by a winter storm",
		),
		ext("https://b.test",
			"The outage hit 12000 homes in 2021",
			"Turnout reached 55 percent in the district",
			"The mayor John Smith announced the plan",
			"The outage was caused by a software fault",
		),
	})
	topics := make([]string, len(got))
	for i, c := range got {
		topics[i] = c.Topic
	}
	assert.Equal(t, []string{TopicDate, TopicNumber, TopicStatistic, TopicPerson, TopicCause}, topics)
}

func TestDetect_OnePairPerTopic(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "Sales rose 10% last quarter"),
		ext("https://b.test", "Sales rose 12% last quarter"),
		ext("https://c.test", "Sales rose 15% last quarter"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, TopicStatistic, got[0].Topic)
	assert.Equal(t, "https://a.test", got[0].Claims[0].URL)
	assert.Equal(t, "https://b.test", got[0].Claims[1].URL)
}

func TestDetect_SameSourceSkipped(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "The plant opened in 2019"),
		ext("https://a.test", "The plant opened in 2021"),
	})
	assert.Empty(t, got)
}

func TestDetect_CausalOverlapAgrees(t *testing.T) {
	got := Detect([]domain.Extraction{
		ext("https://a.test", "The outage was caused by a severe winter storm"),
		ext("https://b.test", "The outage was caused by a winter storm"),
	})
	assert.Empty(t, got)
}

func TestValueExtractors(t *testing.T) {
	assert.Equal(t, []string{"march 3, 2024"}, dateValues("Opened March 3, 2024 in 2024"))
	assert.Equal(t, []string{"2019", "2021"}, dateValues("Between 2019 and 2021"))
	assert.Equal(t, []string{"5000", "2 million"}, numberValues("5,000 homes and 2 million people in 2020 at 4%"))
	assert.Equal(t, []string{"4%", "5.5%"}, percentValues("4% then 5.5 percent"))
	assert.Equal(t, []string{"storm"}, causeValues("delayed because of the storm"))
	assert.Nil(t, causeValues("nothing causal here"))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, jaccard(nil, nil))
	assert.Equal(t, 0.5, jaccard([]string{"a", "b"}, []string{"b", "c", "c", "a", "d"}))
}
