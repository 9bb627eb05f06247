package prompt

const offerTemplate = `As a CRM marketing specialist with expertise in personalization, create a highly targeted e-commerce offer for this specific customer segment:

Customer Profile:
- Loyalty Score: {{ loyalty_score }}/100
- Loyalty Category: {{ category }}
- Days Since Last Purchase: {{ days_inactive | num }}
- Total Lifetime Spend: ${{ total_spent | fixed: 2 }}
- Average Order Value: ${{ avg_order_value | fixed: 2 }}
- Purchase Frequency: {{ purchase_frequency | fixed: 2 }} orders per month
- Total Purchases: {{ purchase_count }}
- Behavioral Segment: {{ segment }}
- Preferred Categories: {{ preferred_categories | join_or: "None identified" }}

Important context for this customer:
- {{ insights }}
- Suggested discount range: {{ suggested_discount }}
- Optimal timing strategy: {{ timing_strategy }}
- Recommended product categories: {{ recommended_categories | join_or: "bestsellers" }}

Based on this customer's specific profile, create a personalized offer that:
1. Has a compelling single-word name that reflects their exact loyalty status and purchase behavior
2. Includes a specific discount or promotion calibrated to their spending habits and likelihood to convert
3. Directly references their preferred product categories
4. Creates urgency with an expiration timeframe based on their typical purchase cycle
5. Uses language and incentives that address their {{ category }} status

Format your response as a clean JSON object:
{
  "name": "OFFER-NAME",
  "discount": "DISCOUNT-PERCENTAGE-OR-AMOUNT",
  "description": "Compelling offer description with specific product references",
  "expiration": "Strategic timeframe with specific date",
  "targetedCategory": "Specific product category to promote",
  "expectedConversionRate": "Estimated conversion percentage based on customer data"
}
`

const churnTemplate = `Analyze this customer data and calculate a precise churn probability (0-100%):

- Days since last purchase: {{ days_inactive | num }}
- Total purchases: {{ purchase_count }}
- Engagement score (0-1): {{ engagement_score | num }}
- Average order value: ${{ avg_order_value | num }}
- Purchase frequency: {{ purchase_frequency | num }} orders per month
{% if special_context.size > 0 %}- Special context: {{ special_context | join: ", " }}
{% endif %}
Important guidelines:
- New customers with zero purchases should be evaluated based on engagement score and days inactive
- Zero purchase frequency with previous purchases indicates high churn risk
- For customers with no purchase history, focus on engagement metrics
- Higher inactivity periods strongly correlate with increased churn risk
- Low engagement scores indicate potential disinterest

Return ONLY a JSON object with these fields:
{
  "churnProbability": [a specific number between 0-100 based on the data, NOT a default value],
  "riskLevel": [either "high" if >70%, "medium" if >40%, or "low" otherwise],
  "keyRiskFactors": [specific factors from the data that indicate risk],
  "retentionStrategies": [targeted strategies based on the specific risk factors]
}
`

const loyaltyTemplate = `As a CRM loyalty analysis expert, calculate a loyalty score (0-100) for this customer:

Purchase metrics:
- Total purchases: {{ purchase_count }}
- Total spent: ${{ total_spent | fixed: 2 }}
- Average order value: ${{ avg_order_value | fixed: 2 }}
- Purchase frequency: {{ purchase_frequency | fixed: 2 }} orders per month
- Customer lifetime: {{ customer_lifetime | num }} days
- Return rate: {{ return_rate | fixed: 1 }}%

Engagement metrics:
- Days since last activity: {{ days_inactive | num }}
- Engagement score (0-1): {{ engagement_score | fixed: 2 }}
- Feedback score (0-5): {{ feedback_score | num }}

Consider these industry standards:
- RFM (Recency, Frequency, Monetary value) analysis
- Customer Lifetime Value calculation
- Net Promoter Score influence
- Churn prediction indicators

Return only a numeric score between 0-100, where:
- 80-100: Highly loyal, brand advocate
- 60-79: Loyal customer
- 40-59: Moderate loyalty
- 20-39: At-risk customer
- 0-19: Churned or about to churn
`

const sentimentTemplate = `Analyze this customer feedback and provide:
1. A sentiment score from -1 (very negative) to 1 (very positive)
2. Key themes or issues mentioned
3. Actionable recommendations for the business

Customer feedback: "{{ feedback }}"

Format your response as a JSON object:
{
  "sentimentScore": number,
  "keyThemes": ["theme1", "theme2"],
  "actionableInsights": ["insight1", "insight2"],
  "priority": "high/medium/low"
}
`
