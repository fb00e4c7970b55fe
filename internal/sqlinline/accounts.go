package sqlinline

const QSelectBalance = `--sql 2b7ad2e5-f3f9-4c91-97f0-2439020c734a
SELECT free_credits, vip_credits
FROM accounts
WHERE account_key = $1;
`

// Vip credits are consumed before free credits. The pre-image is read under a
// row lock so two workers decrementing the same account serialize; an empty
// balance mutates nothing and reports 'none'.
const QDecrementOnSuccess = `--sql 2975a478-f298-4de2-865c-ab60faeb59a6
WITH locked AS (
    SELECT account_key, vip_credits, free_credits
    FROM accounts
    WHERE account_key = $1
    FOR UPDATE
),
applied AS (
    UPDATE accounts a
    SET vip_credits  = a.vip_credits  - CASE WHEN l.vip_credits > 0 THEN 1 ELSE 0 END,
        free_credits = a.free_credits - CASE WHEN l.vip_credits = 0 AND l.free_credits > 0 THEN 1 ELSE 0 END,
        updated_at   = now()
    FROM locked l
    WHERE a.account_key = l.account_key
    RETURNING l.vip_credits AS prev_vip, l.free_credits AS prev_free
)
SELECT CASE
    WHEN prev_vip > 0 THEN 'vip'
    WHEN prev_free > 0 THEN 'free'
    ELSE 'none'
END
FROM applied;
`

const QIncrementVip = `--sql 207774cf-7e5f-4e22-a5de-e1e78c87d28b
UPDATE accounts
SET vip_credits = vip_credits + $2,
    updated_at  = now()
WHERE account_key = $1;
`

// New accounts start with 2 free credits. A referrer that resolves to an
// existing account is linked and earns 1 free credit in the same statement;
// an unknown referrer is dropped silently. Re-registering is a no-op.
const QRegisterIfAbsent = `--sql b8dc14e5-f1a6-4cbc-bd44-b4933c24721b
WITH ref AS (
    SELECT account_key
    FROM accounts
    WHERE account_key = $2
),
created AS (
    INSERT INTO accounts (account_key, free_credits, vip_credits, referrer_key, created_at, updated_at)
    SELECT $1, 2, 0, (SELECT account_key FROM ref), now(), now()
    ON CONFLICT (account_key) DO NOTHING
    RETURNING account_key
),
bonus AS (
    UPDATE accounts
    SET free_credits = free_credits + 1,
        updated_at   = now()
    WHERE account_key IN (SELECT account_key FROM ref)
      AND EXISTS (SELECT 1 FROM created)
    RETURNING account_key
)
SELECT EXISTS (SELECT 1 FROM created),
       EXISTS (SELECT 1 FROM bonus);
`

const QReferralCount = `--sql bca6063b-9044-4b5d-9ecc-85293f0f7a83
SELECT count(*)
FROM accounts
WHERE referrer_key = $1;
`
