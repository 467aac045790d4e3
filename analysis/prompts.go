package analysis

const audienceSignalsPrompt = `You are an expert campaign strategist.

From the following campaign text, extract **key audience targeting signals**, formatted as JSON with the following keys:

- Demographics: (e.g., age groups, gender, generation, etc.)
- Interests / Values: (e.g., sustainability, clean design, wellness; short phrases only)
- Behaviors: (e.g., purchase habits, engagement patterns)
- Locations: (e.g., urban cities, coasts, regions)
- Cultural References: (e.g., brand names, pop culture, hashtags, visual aesthetics)

Rules:
- Normalize hashtags (e.g., "#cleanbeauty" becomes "clean beauty") before adding them to Interests or Cultural References.
- Only include brands, artists, hashtags, or visual aesthetics in Cultural References.
- Avoid overly general terms (e.g., "design") unless contextually meaningful.
- Do NOT fabricate information not present in the text.
- Keep all lists concise, with no more than 5-7 items per category.
- Return only valid JSON.

Campaign text:
"""{{.CampaignText}}"""

Return as a JSON dictionary.`

const campaignInsightsPrompt = `You are a cultural strategist helping a brand understand its audience.

Audience Profile:
{{.AudienceProfile}}

Product Description:
{{.ProductDescription}}

Qloo Insights:
- Tags: {{join ", " .Tags}}
- Cultural Entities: {{join ", " .Entities}}
- Trending Topics: {{join ", " .Trending}}
- Demographics: {{join ", " .Demographics}}

Behavioral Signals:
{{join ", " .Behaviors}}

Instructions:
Analyze the above and summarize:
1. Key cultural and behavioral themes.
2. Audience motivations and values.
3. Trends and cultural touchpoints to leverage.
4. Strategic recommendations for positioning the product.

Output:
- Cultural Insights Summary
- Audience Motivation
- Strategic Positioning Suggestions`

const campaignPlanPrompt = `You are a campaign strategist and copywriter crafting a launch plan for social media.

Audience Profile:
{{.AudienceProfile}}

Product Description:
{{.ProductDescription}}

Strategic Insights:
{{.Insights}}

Instructions:
Based on the insights and audience values:
1. Create 3 Instagram captions (emotionally resonant, culturally relevant).
2. Include hashtags (based on interests, values, trends).
3. Suggest an SEO-friendly campaign title.
4. Describe the campaign tone/style in detail.
5. List 2-3 content themes/pillars (e.g., "clean beauty", "social consciousness").
6. Suggest any influencer or brand collab ideas (if relevant).

Output:
- Captions (3)
- Suggested Hashtags
- SEO Campaign Title
- Tone/Style Summary
- Key Messaging Themes
- Collaboration/Influencer Ideas`

const jsonAnalystInstructions = "You are a marketing strategist and analyst. Always respond with valid JSON."

const strategicInsightsPrompt = `You're an expert campaign analyst combining data science and cultural intelligence.

Past weeks of campaign performance data:
{{.Performance}}

Audience and cultural insights from Qloo:
{{.CulturalInsights}}

Analyze and synthesize these inputs. For each insight:
- Quantify impact (e.g., engagement %, conversion uplift)
- Cite specific examples of posts, audience segments, or content themes
- Link Qloo cultural insights directly to performance outcomes
- Identify emerging trends and missed growth opportunities
- Suggest clear, actionable recommendations for future campaigns

Return ONLY a valid JSON object with these keys:
- "key_insights": array of 3-5 precise insight statements with data references
- "audience_trends": array of 2-3 audience behaviors or preferences to prioritize
- "performance_drivers": array of 2-3 top contributors to engagement or reach
- "blindspots": array of 2-3 missed opportunities or underleveraged assets
- "recommendations": array of 2-3 tactical next steps to improve campaign impact
- "summary": brief 2-3 sentence overview highlighting key takeaways`

const strategicRecommendationsPrompt = `You're a marketing strategist. Create actionable recommendations and marketing assets based on the analysis below.

Campaign Analysis:
{{.Analysis}}
{{with .CampaignPlan}}
Qloo Campaign Plan: {{.}}{{end}}{{with .AudienceProfile}}
Audience Profile: {{.}}{{end}}{{with .ProductDescription}}
Product Description: {{.}}{{end}}{{with .PlatformTrends}}
Platform Trends: {{.}}{{end}}{{with .OnboardingInfo}}
Onboarding Info: {{.}}{{end}}

Leverage cultural insights from Qloo and platform trends to tailor campaign content and KPIs.

Generate the following:

1. 3 actionable strategic recommendations, each with:
    - Strategic focus area
    - Supporting insight
    - 3-5 specific tactics
    - Expected impact on key metrics

2. Top priority action to take immediately

3. 3-5 content themes to emphasize in the next campaign

4. Captions: 3-5 example social media captions that fit the brand and audience

5. Hashtags: 5-7 relevant hashtags aligned with campaign themes and trends

6. Tone and style summary: Brief description of the ideal tone and style for messaging

7. Optional collaborations: 2-3 collaboration ideas with influencers or brands relevant to audience culture

8. 30/60/90 day implementation timeline with milestones

Return ONLY a valid JSON object with these keys:
- "recommendations": array of 3 recommendation objects, each with:
  - "focus"
  - "insight"
  - "tactics"
  - "expected_impact"
- "top_priority"
- "content_themes"
- "captions"
- "hashtags"
- "tone_style_summary"
- "optional_collaborations"
- "timeline"`
